package local

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KunalSingh5431/smartPDF/internal/shared/storage/object"
)

func TestSaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	n, err := store.Save(ctx, "u/1700-doc.pdf", "application/pdf", strings.NewReader("%PDF-1.4 body"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n != int64(len("%PDF-1.4 body")) {
		t.Fatalf("unexpected size %d", n)
	}

	rc, err := store.Open(ctx, "u/1700-doc.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "%PDF-1.4 body" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, "u/1700-doc.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Open(ctx, "u/1700-doc.pdf"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "u/1700-doc.pdf"); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Save(context.Background(), "../escape.pdf", "application/pdf", strings.NewReader("x"))
	if !errors.Is(err, object.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestHonorsCanceledContext(t *testing.T) {
	store := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Open(ctx, "u/doc.pdf"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestFailedSaveLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	if _, err := store.Save(ctx, "u/1700-doc.pdf", "application/pdf", strings.NewReader("first")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Save(ctx, "u/1700-doc.pdf", "application/pdf", failingReader{}); err == nil {
		t.Fatal("expected error from failing reader")
	}

	entries, err := os.ReadDir(filepath.Join(dir, "u"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "1700-doc.pdf" {
		t.Fatalf("expected only the first upload, got %v", entries)
	}
	rc, err := store.Open(ctx, "u/1700-doc.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if data, _ := io.ReadAll(rc); string(data) != "first" {
		t.Fatalf("expected first upload content kept, got %q", data)
	}
}
