package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("summary.generated", map[string]any{
		"document_id": "doc-1",
		"cached":      false,
	})

	entries := logs.FilterMessage("summary.generated").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["document_id"] != "doc-1" {
		t.Fatalf("unexpected document_id: %v", fields["document_id"])
	}
	if fields["cached"] != false {
		t.Fatalf("unexpected cached: %v", fields["cached"])
	}
}

func TestErrorFlattensErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Error("object.delete_failed", map[string]any{"error": errors.New("disk gone")})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[0].Level)
	}
	if got := entries[0].ContextMap()["error"]; got != "disk gone" {
		t.Fatalf("unexpected error field: %v", got)
	}
}

func TestSetLoggerNilUsesNop(t *testing.T) {
	restore := SetLogger(nil)
	defer restore()
	Warn("ignored", nil)
	if L() == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-7")
	if got := RequestIDFromContext(ctx); got != "req-7" {
		t.Fatalf("expected req-7, got %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	if WithRequestID(ctx, "") != ctx {
		t.Fatal("empty id should return ctx unchanged")
	}
}
