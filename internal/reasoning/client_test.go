package reasoning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/packeval/internal/steps"
)

// fakeModel scripts llms.Model replies: each call pops the next entry.
type fakeModel struct {
	replies  []string
	errs     []error
	calls    int
	messages [][]llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	i := f.calls
	f.calls++
	f.messages = append(f.messages, messages)

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	reply := ""
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	if reply == "" {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

func newTestClient(model llms.Model) *Client {
	cfg := Config{APIKey: "test"}
	cfg.ApplyDefaults()
	return &Client{
		llm:     model,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Inf, 1),
		logger:  zap.NewNop(),
	}
}

type breakdown struct {
	Components []string `json:"components"`
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := Config{APIKey: "k"}
		cfg.ApplyDefaults()
		assert.Equal(t, "gpt-4o", cfg.Model)
		assert.Equal(t, 4096, cfg.MaxTokens)
		assert.Equal(t, float64(2), cfg.RateLimit)
		assert.Equal(t, 2, cfg.MaxRetries)
	})

	t.Run("requires an API key", func(t *testing.T) {
		err := Config{}.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("rejects negative max tokens", func(t *testing.T) {
		err := Config{APIKey: "k", MaxTokens: -1}.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestNewClient(t *testing.T) {
	t.Run("validates config", func(t *testing.T) {
		_, err := NewClient(Config{}, zap.NewNop())
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("accepts nil logger", func(t *testing.T) {
		client, err := NewClient(Config{APIKey: "test", BaseURL: "http://localhost:11434/v1"}, nil)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes the structured reply", func(t *testing.T) {
		model := &fakeModel{replies: []string{`{"components":["tray","lid"]}`}}
		client := newTestClient(model)

		var out breakdown
		err := client.Complete(ctx, steps.Request{Prompt: "break it down"}, &out)
		require.NoError(t, err)
		assert.Equal(t, []string{"tray", "lid"}, out.Components)
		assert.Equal(t, 1, model.calls)
	})

	t.Run("tolerates markdown fences", func(t *testing.T) {
		model := &fakeModel{replies: []string{"```json\n{\"components\":[\"sleeve\"]}\n```"}}
		client := newTestClient(model)

		var out breakdown
		require.NoError(t, client.Complete(ctx, steps.Request{Prompt: "p"}, &out))
		assert.Equal(t, []string{"sleeve"}, out.Components)
	})

	t.Run("retries transient generation errors", func(t *testing.T) {
		model := &fakeModel{
			errs:    []error{errors.New("connection reset"), nil},
			replies: []string{"", `{"components":["pouch"]}`},
		}
		client := newTestClient(model)

		var out breakdown
		require.NoError(t, client.Complete(ctx, steps.Request{Prompt: "p"}, &out))
		assert.Equal(t, 2, model.calls)
		assert.Equal(t, []string{"pouch"}, out.Components)
	})

	t.Run("retries empty responses", func(t *testing.T) {
		model := &fakeModel{replies: []string{"", `{"components":["box"]}`}}
		client := newTestClient(model)

		var out breakdown
		require.NoError(t, client.Complete(ctx, steps.Request{Prompt: "p"}, &out))
		assert.Equal(t, 2, model.calls)
	})

	t.Run("does not retry malformed JSON", func(t *testing.T) {
		model := &fakeModel{replies: []string{"this is not JSON"}}
		client := newTestClient(model)

		var out breakdown
		err := client.Complete(ctx, steps.Request{Prompt: "p"}, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding model reply")
		assert.Equal(t, 1, model.calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		boom := errors.New("upstream down")
		model := &fakeModel{errs: []error{boom, boom, boom}}
		client := newTestClient(model)

		var out breakdown
		err := client.Complete(ctx, steps.Request{Prompt: "p"}, &out)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "max retries exceeded")
		assert.Equal(t, 3, model.calls)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		model := &fakeModel{replies: []string{`{}`}}
		client := newTestClient(model)

		var out breakdown
		err := client.Complete(cancelled, steps.Request{Prompt: "p"}, &out)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuildMessages(t *testing.T) {
	t.Run("system prompt comes first", func(t *testing.T) {
		messages := buildMessages(steps.Request{System: "you are terse", Prompt: "hi"})
		require.Len(t, messages, 2)
		assert.Equal(t, llms.ChatMessageTypeSystem, messages[0].Role)
		assert.Equal(t, llms.ChatMessageTypeHuman, messages[1].Role)
	})

	t.Run("images attach as parts", func(t *testing.T) {
		messages := buildMessages(steps.Request{
			Prompt: "describe",
			Images: []string{"https://example.com/a.png", "https://example.com/b.png"},
		})
		require.Len(t, messages, 1)
		assert.Len(t, messages[0].Parts, 3)
	})
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced with language", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"padded", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFences(tt.in))
		})
	}
}
