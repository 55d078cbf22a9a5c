package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"github.com/KunalSingh5431/smartPDF/internal/shared/telemetry"
	"github.com/KunalSingh5431/smartPDF/internal/summarizer"
)

const (
	providerName = "openai"
	DefaultModel = openai.ChatModelGPT4oMini
)

// Client implements summarizer.Client using the OpenAI Responses API.
type Client struct {
	client openai.Client
	model  string
}

type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewClient constructs an OpenAI client. An empty key is a configuration error.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required: %w", summarizer.ErrNotConfigured)
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
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	return &Client{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}, nil
}

// Summarize sends the bounded prompt and returns the response output text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	start := time.Now()
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(summarizer.MaxOutputTokens),
		Temperature:     openai.Float(summarizer.Temperature),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(summarizer.BuildPrompt(text)),
		},
	})
	if err != nil {
		upstream := &summarizer.UpstreamError{Provider: providerName, Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			upstream.Status = apiErr.StatusCode
		}
		return "", upstream
	}

	telemetry.Info("summarizer.call", map[string]any{
		"provider":      providerName,
		"model":         c.model,
		"duration_ms":   time.Since(start).Milliseconds(),
		"status":        string(resp.Status),
		"output_tokens": resp.Usage.OutputTokens,
	})

	return summarizer.OrPlaceholder(resp.OutputText()), nil
}

var _ summarizer.Client = (*Client)(nil)
