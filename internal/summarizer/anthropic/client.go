package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
	"github.com/KunalSingh5431/smartPDF/internal/summarizer"
)

const (
	providerName = "anthropic"
	DefaultModel = "claude-3-5-haiku-latest"
)

// Client implements summarizer.Client using the Anthropic Messages API.
type Client struct {
	client anthropic.Client
	model  string
}

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required: %w", summarizer.ErrNotConfigured)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(strings.TrimRight(base, "/")))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	return &Client{
		client: anthropic.NewClient(reqOpts...),
		model:  model,
	}, nil
}

// Summarize sends the bounded prompt as a single user turn and joins the text blocks of the reply.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	start := time.Now()
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   summarizer.MaxOutputTokens,
		Temperature: anthropic.Float(summarizer.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(summarizer.BuildPrompt(text))),
		},
	})
	if err != nil {
		upstream := &summarizer.UpstreamError{Provider: providerName, Err: err}
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			upstream.Status = apiErr.StatusCode
		}
		return "", upstream
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type != "text" || block.Text == "" {
			continue
		}
		out.WriteString(block.Text)
	}

	telemetry.Info("summarizer.call", map[string]any{
		"provider":      providerName,
		"model":         c.model,
		"duration_ms":   time.Since(start).Milliseconds(),
		"stop_reason":   string(msg.StopReason),
		"output_tokens": msg.Usage.OutputTokens,
	})

	return summarizer.OrPlaceholder(out.String()), nil
}

var _ summarizer.Client = (*Client)(nil)
