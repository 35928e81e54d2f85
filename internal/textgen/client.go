// Package textgen generates short free-text recommendations with the OpenAI Chat Completions API.
package textgen

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/myrjola/wellplan/internal/contexthelpers"
	"github.com/myrjola/wellplan/internal/errors"
	"github.com/myrjola/wellplan/internal/logging"
)

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gpt-4o-mini"
	// DefaultRequestTimeout bounds each HTTP request of the default client.
	DefaultRequestTimeout = 15 * time.Second
	// DefaultSystemPrompt is used when Config.SystemPrompt is empty.
	DefaultSystemPrompt = "You are a fitness and wellness coach providing personalized recommendations."
)

var (
	// ErrNotConfigured is returned by Generate when no API key is set. No request is made.
	ErrNotConfigured = errors.NewSentinel("text generation not configured")
	// ErrEmptyResponse is returned when the API answers without usable text.
	ErrEmptyResponse = errors.NewSentinel("empty completion")
)

// Config holds the connection settings.
type Config struct {
	APIKey string
	// Model defaults to DefaultModel.
	Model string
	// BaseURL overrides the API endpoint, e.g. for a compatible proxy.
	BaseURL      string
	SystemPrompt string
	// HTTPClient defaults to a client with RequestTimeout. A request abandoned by its caller's deadline still ends
	// when the client times out.
	HTTPClient *http.Client
	// RequestTimeout applies to the default HTTP client only. It defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// Client calls the Chat Completions API. It is safe for concurrent use.
type Client struct {
	client       openai.Client
	configured   bool
	model        string
	systemPrompt string
	logger       *slog.Logger
}

// New creates a client. A client without an API key is valid but reports Configured() == false.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	// A single attempt per decision; failures fall back to the rules instead of retrying.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient == nil {
		if cfg.RequestTimeout <= 0 {
			cfg.RequestTimeout = DefaultRequestTimeout
		}
		cfg.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout} //nolint:exhaustruct // default transport.
	}
	opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))

	return &Client{
		client:       openai.NewClient(opts...),
		configured:   cfg.APIKey != "",
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		logger:       logger,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.configured
}

// Generate sends prompt as the user message and returns the reply flattened from markdown to plain text. The request
// id on ctx, if any, is sent as the X-Client-Request-Id header.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
	}

	var opts []option.RequestOption
	if requestID := contexthelpers.RequestID(ctx); requestID != "" {
		opts = append(opts, option.WithHeader("X-Client-Request-Id", requestID))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params, opts...)
	latency := time.Since(start)
	if err != nil {
		classified := Classify(err)
		return "", errors.Wrap(classified, "chat completion",
			slog.String("model", c.model),
			slog.String("error_type", string(classified.Type)),
			slog.Duration("latency", latency),
		)
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "chat completion",
		slog.String("model", c.model),
		slog.Duration("latency", latency),
		slog.Int64("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	if len(resp.Choices) == 0 {
		return "", errors.Wrap(ErrEmptyResponse, "chat completion", slog.String("reason", "no choices"))
	}
	text := PlainText(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.Wrap(ErrEmptyResponse, "chat completion",
			slog.String("finish_reason", resp.Choices[0].FinishReason))
	}
	return text, nil
}
