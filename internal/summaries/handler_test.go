package summaries

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newSummaryRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", c.GetHeader("X-Test-User"))
		c.Next()
	})
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/documents"))
	return r
}

func getSummary(r http.Handler, id, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/documents/summary/"+id, nil)
	req.Header.Set("X-Test-User", user)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHandlerReturnsSummaryAndCachedFlag(t *testing.T) {
	f := newFixture(t)
	f.addDocument(t, "doc-1", "user-1", "")
	r := newSummaryRouter(f)

	resp := getSummary(r, "doc-1", "user-1")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body Result
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Summary != "Point one\nPoint two" || body.Cached {
		t.Fatalf("unexpected body %+v", body)
	}

	resp = getSummary(r, "doc-1", "user-1")
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Cached {
		t.Fatalf("expected cached on second call")
	}
}

func TestHandlerErrorStatuses(t *testing.T) {
	f := newFixture(t)
	f.addDocument(t, "doc-1", "owner", "")
	r := newSummaryRouter(f)

	if resp := getSummary(r, "missing", "owner"); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := getSummary(r, "doc-1", "intruder"); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}

	f.summarizer.err = errors.New("quota exceeded")
	resp := getSummary(r, "doc-1", "owner")
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Code != "summarization_failed" || payload.Message == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if detail, _ := payload.Error.Details["error"].(string); detail == "" {
		t.Fatalf("expected upstream message passthrough")
	}
}
