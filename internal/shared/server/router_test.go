package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KunalSingh5431/smartPDF/internal/documents"
	"github.com/KunalSingh5431/smartPDF/internal/shared/auth"
	"github.com/KunalSingh5431/smartPDF/internal/shared/config"
	localstore "github.com/KunalSingh5431/smartPDF/internal/shared/storage/object/local"
	"github.com/KunalSingh5431/smartPDF/internal/summaries"
)

func serve(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHealthReportsFailingCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterDeps{
		HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"mongo":    func(context.Context) error { return errors.New("no primary") },
		},
	})

	resp := serve(r, http.MethodGet, "/api/health", "")
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPublicAndProtectedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterDeps{})

	if resp := serve(r, http.MethodGet, "/api/health", ""); resp.Code != http.StatusOK {
		t.Fatalf("health expected 200, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodGet, "/metrics", ""); resp.Code != http.StatusOK {
		t.Fatalf("metrics expected 200, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodGet, "/api/documents", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("documents without token expected 401, got %d", resp.Code)
	}
}

func TestSummaryRouteIsRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth.Configure("router-secret", time.Hour)
	defer auth.Configure("", 0)
	token, err := auth.SignJWT("user-1", "u@example.com", "U")
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	repo := documents.NewMemoryRepo()
	store := localstore.New(t.TempDir())
	docSvc := &documents.Service{Store: store, Repo: repo}
	sumSvc := &summaries.Service{Repo: repo, Store: store}
	r := NewRouter(RouterDeps{
		Config:          config.Config{SummaryRatePerSec: 0.001, SummaryRateBurst: 1},
		DocumentHandler: documents.NewHandler(docSvc, 0, ""),
		SummaryHandler:  summaries.NewHandler(sumSvc),
	})

	if resp := serve(r, http.MethodGet, "/api/documents/summary/missing", token); resp.Code != http.StatusNotFound {
		t.Fatalf("first summary expected 404, got %d", resp.Code)
	}
	if resp := serve(r, http.MethodGet, "/api/documents/summary/missing", token); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("second summary expected 429, got %d", resp.Code)
	}
	// Listing is outside the SUMMARY group.
	for i := 0; i < 3; i++ {
		if resp := serve(r, http.MethodGet, "/api/documents", token); resp.Code != http.StatusOK {
			t.Fatalf("list %d expected 200, got %d", i, resp.Code)
		}
	}
}

func TestAddr(t *testing.T) {
	for in, want := range map[string]string{"": ":5000", "8080": ":8080", ":9000": ":9000"} {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
