package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "star bullets", raw: "* Point one\n* Point two", want: "Point one\nPoint two"},
		{name: "dash bullets with blanks", raw: "- Revenue grew 12%.\n\n-   Costs fell.\n", want: "Revenue grew 12%.\nCosts fell."},
		{name: "colon heading dropped", raw: "Key Points:\n* Alpha, beta.\n* Gamma.", want: "Alpha, beta.\nGamma."},
		{name: "bare heading among bullets", raw: "Summary\n* Point one\n* Point two", want: "Point one\nPoint two"},
		{name: "bulleted colon heading", raw: "* Overview:\n* Point one", want: "Point one"},
		{name: "crlf", raw: "* One.\r\n* Two.\r\n", want: "One.\nTwo."},
		{name: "all headings", raw: "Summary:\nDetails:", want: FallbackSummary},
		{name: "empty", raw: "", want: FallbackSummary},
		{name: "whitespace", raw: "  \n\t\n", want: FallbackSummary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.raw); got != tt.want {
				t.Fatalf("Clean(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanIsIdempotentOnCleanInput(t *testing.T) {
	clean := "Point one\nPoint two\nPoint three"
	if got := Clean(clean); got != clean {
		t.Fatalf("expected clean input unchanged, got %q", got)
	}
	once := Clean("* Revenue grew.\n* Margins held.\nOutlook:")
	if twice := Clean(once); twice != once {
		t.Fatalf("expected Clean to be idempotent: %q vs %q", once, twice)
	}
}

func TestCleanKeepsPlaceholder(t *testing.T) {
	if got := Clean(NoSummaryPlaceholder); got != NoSummaryPlaceholder {
		t.Fatalf("expected placeholder preserved, got %q", got)
	}
}

func TestBuildPromptTruncatesByRune(t *testing.T) {
	text := strings.Repeat("é", MaxInputChars+50)
	prompt := BuildPrompt(text)
	if !strings.HasPrefix(prompt, "Summarise the following PDF into 5-8 concise bullet points:\n\n") {
		t.Fatalf("unexpected prompt prefix: %q", prompt[:40])
	}
	body := strings.TrimPrefix(prompt, promptPrefix)
	if n := utf8.RuneCountInString(body); n != MaxInputChars {
		t.Fatalf("expected %d runes, got %d", MaxInputChars, n)
	}
	if !utf8.ValidString(body) {
		t.Fatal("truncation split a rune")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("hello", 2); got != "he" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("hello", 0); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestUpstreamErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("boom")
	var err error = &UpstreamError{Provider: "gemini", Status: 502, Err: cause}
	if !errors.Is(err, ErrUpstream) {
		t.Fatal("expected errors.Is ErrUpstream")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to unwrap")
	}
	if !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUnconfiguredFails(t *testing.T) {
	_, err := Unconfigured{Provider: "openai"}.Summarize(context.Background(), "text")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestOrPlaceholder(t *testing.T) {
	if OrPlaceholder(" \n") != NoSummaryPlaceholder {
		t.Fatal("expected placeholder for blank text")
	}
	if OrPlaceholder("* a") != "* a" {
		t.Fatal("expected text passthrough")
	}
}
