package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	MaxInputChars   = 25000
	MaxOutputTokens = 256
	Temperature     = 0.3

	// FallbackSummary replaces a response that cleans down to nothing.
	FallbackSummary = "No summary"
	// NoSummaryPlaceholder is returned when a successful response lacks the expected text.
	NoSummaryPlaceholder = "Summarizer returned no summary"

	promptPrefix = "Summarise the following PDF into 5-8 concise bullet points:\n\n"
)

var (
	ErrNotConfigured = errors.New("summarizer credential not configured")
	ErrUpstream      = errors.New("summarizer upstream error")
)

// Client turns document text into a raw bullet-style summary.
type Client interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// UpstreamError describes a failed provider call.
type UpstreamError struct {
	Provider string
	Status   int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Truncate keeps at most max runes of text.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == max {
			return text[:i]
		}
		n++
	}
	return text
}

// BuildPrompt renders the summary prompt over a bounded prefix of text.
func BuildPrompt(text string) string {
	return promptPrefix + Truncate(text, MaxInputChars)
}

// OrPlaceholder substitutes NoSummaryPlaceholder for blank provider output.
func OrPlaceholder(text string) string {
	if strings.TrimSpace(text) == "" {
		return NoSummaryPlaceholder
	}
	return text
}

// Unconfigured fails every call. It stands in for a provider whose credential is missing.
type Unconfigured struct {
	Provider string
}

func (u Unconfigured) Summarize(ctx context.Context, text string) (string, error) {
	return "", fmt.Errorf("%s: %w", u.Provider, ErrNotConfigured)
}

var _ Client = Unconfigured{}
