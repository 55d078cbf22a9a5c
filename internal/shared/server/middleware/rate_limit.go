package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KunalSingh5431/smartPDF/internal/shared/server/respond"
)

const (
	defaultRateLimitGroup = "DEFAULT"
	// GroupSummary is the rate limit group for summary generation requests.
	GroupSummary = "SUMMARY"
)

// RateLimitRule is a token bucket: Rate tokens per second, at most Burst saved.
type RateLimitRule struct {
	Rate  float64
	Burst int
}

func (r RateLimitRule) disabled() bool { return r.Rate <= 0 || r.Burst <= 0 }

type RateLimitConfig struct {
	Rules        map[string]RateLimitRule
	DefaultGroup string
	GroupFor     func(*gin.Context) string
	Limiter      *RateLimiter
}

// RateLimiter keeps one bucket per key in memory. Buckets are never evicted,
// which is fine for a single process with a bounded user base.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	clock   func() time.Time
}

type tokenBucket struct {
	tokens  float64
	updated time.Time
}

// take refills the bucket up to now and spends one token if available.
// It returns the time until the next token otherwise.
func (b *tokenBucket) take(now time.Time, rule RateLimitRule) (bool, time.Duration) {
	if dt := now.Sub(b.updated).Seconds(); dt > 0 {
		b.tokens = math.Min(float64(rule.Burst), b.tokens+dt*rule.Rate)
		b.updated = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	missing := math.Max(0, 1-b.tokens)
	ms := math.Ceil(missing / rule.Rate * 1000)
	return false, time.Duration(ms) * time.Millisecond
}

func NewRateLimiter(clock func() time.Time) *RateLimiter {
	if clock == nil {
		clock = time.Now
	}
	return &RateLimiter{buckets: map[string]*tokenBucket{}, clock: clock}
}

// Allow reports whether key may proceed under rule and, if not, how long to wait.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.disabled() {
		return true, 0
	}
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()
	b := l.buckets[key]
	if b == nil {
		b = &tokenBucket{tokens: float64(rule.Burst), updated: now}
		l.buckets[key] = b
	}
	return b.take(now, rule)
}

// RateLimit throttles requests per principal (user id, else client ip) and group.
// Groups without a rule are not limited.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(nil)
	}
	fallback := cfg.DefaultGroup
	if fallback == "" {
		fallback = defaultRateLimitGroup
	}

	resolveGroup := func(c *gin.Context) string {
		if cfg.GroupFor == nil {
			return fallback
		}
		if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
			return g
		}
		return fallback
	}

	return func(c *gin.Context) {
		group := resolveGroup(c)
		rule, limited := cfg.Rules[group]
		if !limited {
			c.Next()
			return
		}

		who := UserIDFromContext(c)
		if who == "" {
			who = c.ClientIP()
		}
		ok, wait := limiter.Allow(group+":"+who, rule)
		if ok {
			c.Next()
			return
		}
		rejectRateLimited(c, wait)
	}
}

func rejectRateLimited(c *gin.Context, wait time.Duration) {
	if wait <= 0 {
		wait = time.Second
	}
	secs := int(math.Ceil(wait.Seconds()))
	c.Header("Retry-After", strconv.Itoa(secs))
	respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests", gin.H{
		"retryAfterMs": wait.Milliseconds(),
	})
}
