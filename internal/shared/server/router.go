package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "github.com/KunalSingh5431/smartPDF/internal/auth"
	"github.com/KunalSingh5431/smartPDF/internal/documents"
	"github.com/KunalSingh5431/smartPDF/internal/shared/config"
	"github.com/KunalSingh5431/smartPDF/internal/shared/metrics"
	"github.com/KunalSingh5431/smartPDF/internal/shared/server/middleware"
	"github.com/KunalSingh5431/smartPDF/internal/shared/server/respond"
	"github.com/KunalSingh5431/smartPDF/internal/summaries"
	"github.com/KunalSingh5431/smartPDF/internal/users"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config          config.Config
	UserHandler     *users.Handler
	DocumentHandler *documents.Handler
	SummaryHandler  *summaries.Handler
	GoogleAuth      *googleauth.GoogleService
	HealthChecks    map[string]HealthCheck
	RateLimiter     *middleware.RateLimiter
}

// PublicPrefixes are reachable without a bearer token.
var PublicPrefixes = []string{
	"/api/users/signup",
	"/api/users/login",
	"/api/auth/google/",
	"/api/health",
	"/uploads/",
	"/metrics",
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(PublicPrefixes...),
		middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:  deps.RateLimiter,
			GroupFor: groupFor,
			Rules: map[string]middleware.RateLimitRule{
				middleware.GroupSummary: {
					Rate:  deps.Config.SummaryRatePerSec,
					Burst: deps.Config.SummaryRateBurst,
				},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterFileRoutes(r)
	}

	api := r.Group("/api")
	api.GET("/health", health(deps.HealthChecks))
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api.Group("/users"))
	}
	docs := api.Group("/documents")
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(docs)
	}
	if deps.SummaryHandler != nil {
		deps.SummaryHandler.RegisterRoutes(docs)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Route not found", nil)
	})

	return r
}

func groupFor(c *gin.Context) string {
	if c.FullPath() == summaries.SummaryRoute {
		return middleware.GroupSummary
	}
	return ""
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(checks) == 0 {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		ok := true
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				ok = false
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": results})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":5000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
