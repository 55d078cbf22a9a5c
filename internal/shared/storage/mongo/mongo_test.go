package mongo

import (
	"context"
	"testing"
)

func TestConnectValidatesArguments(t *testing.T) {
	if _, err := Connect(context.Background(), "", "smartpdf"); err == nil {
		t.Fatal("expected error for empty uri")
	}
	if _, err := Connect(context.Background(), "mongodb://localhost:27017", " "); err == nil {
		t.Fatal("expected error for empty database name")
	}
}

func TestDisconnectNil(t *testing.T) {
	if err := Disconnect(context.Background(), nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
