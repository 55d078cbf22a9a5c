package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KunalSingh5431/smartPDF/internal/summarizer"
)

const completedResponse = `{
  "id": "resp_1",
  "object": "response",
  "created_at": 1735689600,
  "status": "completed",
  "model": "gpt-4o-mini",
  "output": [{
    "type": "message",
    "id": "msg_1",
    "status": "completed",
    "role": "assistant",
    "content": [{"type": "output_text", "text": "* Point one\n* Point two", "annotations": []}]
  }],
  "usage": {"input_tokens": 12, "output_tokens": 8, "total_tokens": 20}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestSummarizeUsesResponsesAPI(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer key")
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completedResponse))
	})

	out, err := c.Summarize(context.Background(), "Lorem ipsum")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != "* Point one\n* Point two" {
		t.Fatalf("unexpected output %q", out)
	}
	if body["model"] != "gpt-4o-mini" {
		t.Fatalf("expected default model, got %v", body["model"])
	}
	if body["max_output_tokens"] != float64(256) || body["temperature"] != 0.3 {
		t.Fatalf("unexpected sampling params: %v", body)
	}
	if input, _ := body["input"].(string); !strings.HasSuffix(input, "Lorem ipsum") {
		t.Fatalf("unexpected input %v", body["input"])
	}
}

func TestSummarizeEmptyOutputDegradesToPlaceholder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"resp_2","object":"response","status":"completed","model":"gpt-4o-mini","output":[]}`))
	})
	out, err := c.Summarize(context.Background(), "text")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if out != summarizer.NoSummaryPlaceholder {
		t.Fatalf("expected placeholder, got %q", out)
	}
}

func TestSummarizeAPIErrorIsUpstream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})
	_, err := c.Summarize(context.Background(), "text")
	if !errors.Is(err, summarizer.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	var upstream *summarizer.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Options{APIKey: " "}); !errors.Is(err, summarizer.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
