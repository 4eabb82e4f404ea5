// Package reasoning provides the LLM collaborator for evaluation steps.
//
// The client wraps langchaingo's OpenAI-compatible chat API and returns
// structured artifacts: every call runs in JSON mode and the reply is decoded
// into the caller's schema struct. Works against api.openai.com or any
// OpenAI-compatible endpoint.
package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/packeval/internal/steps"
)

const (
	defaultModel       = "gpt-4o"
	defaultTemperature = 0.2
	defaultMaxTokens   = 4096
	defaultRateLimit   = 2 // requests per second
	defaultBurst       = 4
	defaultMaxRetries  = 2
	defaultBaseBackoff = 500 * time.Millisecond
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid reasoning configuration")

	// ErrEmptyResponse indicates the model returned no choices.
	ErrEmptyResponse = errors.New("empty model response")
)

// Config holds configuration for the reasoning client.
type Config struct {
	// Model is the chat model to use. Default: gpt-4o.
	Model string

	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string

	// APIKey authenticates against the API.
	APIKey string

	// MaxTokens bounds each reply. Default: 4096.
	MaxTokens int

	// RateLimit is the request rate in requests per second. Default: 2.
	RateLimit float64

	// MaxRetries bounds retry attempts for transient failures. Default: 2.
	MaxRetries int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.RateLimit == 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: max tokens cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Client implements steps.Reasoner over an OpenAI-compatible chat API.
type Client struct {
	llm     llms.Model
	config  Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a reasoning client from config.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &Client{
		llm:     llm,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), defaultBurst),
		logger:  logger,
	}, nil
}

// Complete submits a formatted request and decodes the structured JSON reply
// into out.
//
// The method handles rate limiting, context cancellation and deadlines, and
// bounded retries with exponential backoff for transient generation errors.
// A reply that is not valid JSON for the requested schema is not retried.
func (c *Client) Complete(ctx context.Context, req steps.Request, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	messages := buildMessages(req)
	temperature := req.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			c.logger.Debug("retrying reasoning call", zap.Int("attempt", attempt))
		}

		resp, err := c.llm.GenerateContent(ctx, messages,
			llms.WithTemperature(temperature),
			llms.WithMaxTokens(c.config.MaxTokens),
			llms.WithJSONMode(),
		)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = ErrEmptyResponse
			continue
		}

		content := stripFences(resp.Choices[0].Content)
		if err := json.Unmarshal([]byte(content), out); err != nil {
			return fmt.Errorf("decoding model reply: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// buildMessages assembles the system and user messages, attaching image
// parts for multimodal calls.
func buildMessages(req steps.Request) []llms.MessageContent {
	parts := []llms.ContentPart{llms.TextPart(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, llms.ImageURLPart(img))
	}

	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: parts,
	})
	return messages
}

// stripFences tolerates models that wrap JSON replies in markdown fences.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
