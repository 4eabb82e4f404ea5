// Packevald is the packaging-concept evaluation daemon.
//
// It runs the evaluation workflow behind an HTTP API: concepts come in,
// reasoning steps assess them against the knowledge base, and evaluations
// park for human feedback before the final score.
//
// Configuration is loaded from a YAML file and PACKEVAL_* environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	packevald
//
//	# Point at a config file
//	packevald -config /etc/packeval/config.yaml
//
//	# Configure via environment
//	PACKEVAL_SERVER_PORT=9090 PACKEVAL_REASONING_API_KEY=sk-... packevald
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/packeval/internal/config"
	"github.com/fyrsmithlabs/packeval/internal/embeddings"
	"github.com/fyrsmithlabs/packeval/internal/evaluation"
	"github.com/fyrsmithlabs/packeval/internal/httpapi"
	"github.com/fyrsmithlabs/packeval/internal/knowledge"
	"github.com/fyrsmithlabs/packeval/internal/logging"
	"github.com/fyrsmithlabs/packeval/internal/reasoning"
	"github.com/fyrsmithlabs/packeval/internal/session"
	"github.com/fyrsmithlabs/packeval/internal/steps"
	"github.com/fyrsmithlabs/packeval/internal/telemetry"
	"github.com/fyrsmithlabs/packeval/internal/vectorstore"
)

const shutdownTimeout = 10 * time.Second

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("packevald\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run starts the daemon and blocks until context cancellation.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("starting packevald",
		zap.Int("port", cfg.Server.Port),
		zap.String("model", cfg.Reasoning.Model),
	)

	// Install the SDK meter provider before any package creates instruments;
	// the prometheus reader feeds the /metrics endpoint directly.
	tel, err := telemetry.New(telemetry.Config{
		ServiceName:    "packeval",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	srv, err := buildServer(cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildServer wires the full dependency graph: embeddings into the vector
// store, the store into the knowledge base, the knowledge base and reasoning
// client into the step handlers, the handlers into the driver, and the driver
// into the session service behind the HTTP API.
func buildServer(cfg *config.Config, logger *zap.Logger) (*httpapi.Server, error) {
	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.Embeddings.APIKey.Value(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding service: %w", err)
	}

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:       cfg.VectorStore.Path,
		Collection: cfg.VectorStore.Collection,
		Compress:   cfg.VectorStore.Compress,
	}, embedder, logger.Named("vectorstore"))
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}

	kb, err := knowledge.NewService(store, logger.Named("knowledge"))
	if err != nil {
		return nil, fmt.Errorf("creating knowledge service: %w", err)
	}

	reasoner, err := reasoning.NewClient(reasoning.Config{
		Model:     cfg.Reasoning.Model,
		BaseURL:   cfg.Reasoning.BaseURL,
		APIKey:    cfg.Reasoning.APIKey.Value(),
		MaxTokens: cfg.Reasoning.MaxTokens,
		RateLimit: cfg.Reasoning.RateLimit,
	}, logger.Named("reasoning"))
	if err != nil {
		return nil, fmt.Errorf("creating reasoning client: %w", err)
	}

	registry, err := evaluation.NewRegistry(
		evaluation.DefaultTransitions(),
		steps.All(reasoner, kb, logger.Named("steps")),
		logger.Named("registry"),
	)
	if err != nil {
		return nil, fmt.Errorf("building step registry: %w", err)
	}

	driver, err := evaluation.NewDriver(registry, logger.Named("driver"),
		evaluation.WithStepTimeout(cfg.Evaluation.StepTimeout.Duration()))
	if err != nil {
		return nil, fmt.Errorf("creating driver: %w", err)
	}

	sessions, err := session.NewService(driver, session.Config{
		CheckpointDir: expandHome(cfg.Evaluation.CheckpointDir),
	}, logger.Named("session"))
	if err != nil {
		return nil, fmt.Errorf("creating session service: %w", err)
	}

	return httpapi.NewServer(sessions, kb, logger.Named("http"), &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
}

// expandHome expands a leading ~ in paths.
func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
