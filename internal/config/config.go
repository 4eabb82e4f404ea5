// Package config provides configuration loading for packeval.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the evaluation service.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Reasoning   ReasoningConfig   `koanf:"reasoning"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Evaluation  EvaluationConfig  `koanf:"evaluation"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is json or console.
	Format string `koanf:"format"`
}

// ReasoningConfig holds the LLM collaborator settings.
type ReasoningConfig struct {
	Model     string  `koanf:"model"`
	BaseURL   string  `koanf:"base_url"`
	APIKey    Secret  `koanf:"api_key"`
	MaxTokens int     `koanf:"max_tokens"`
	RateLimit float64 `koanf:"rate_limit"`
}

// EmbeddingsConfig holds the embedding provider settings.
type EmbeddingsConfig struct {
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
	APIKey  Secret `koanf:"api_key"`
}

// VectorStoreConfig holds knowledge-base storage settings.
type VectorStoreConfig struct {
	Path       string `koanf:"path"`
	Collection string `koanf:"collection"`
	Compress   bool   `koanf:"compress"`
}

// EvaluationConfig holds workflow settings.
type EvaluationConfig struct {
	// StepTimeout bounds each step handler invocation. Zero disables it.
	// The wait for human feedback is a suspension, never subject to this.
	StepTimeout Duration `koanf:"step_timeout"`

	// CheckpointDir is where session snapshots are persisted.
	CheckpointDir string `koanf:"checkpoint_dir"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Reasoning: ReasoningConfig{
			Model:     "gpt-4o",
			MaxTokens: 4096,
			RateLimit: 2,
		},
		Embeddings: EmbeddingsConfig{
			Model: "text-embedding-3-small",
		},
		VectorStore: VectorStoreConfig{
			Path:       "~/.config/packeval/knowledge",
			Collection: "packeval_knowledge",
		},
		Evaluation: EvaluationConfig{
			StepTimeout:   Duration(5 * time.Minute),
			CheckpointDir: "~/.config/packeval/sessions",
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level invalid: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format invalid: %q", c.Logging.Format)
	}
	if c.Reasoning.Model == "" {
		return fmt.Errorf("reasoning.model is required")
	}
	if c.Embeddings.Model == "" {
		return fmt.Errorf("embeddings.model is required")
	}
	return nil
}
