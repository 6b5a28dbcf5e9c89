package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/insightbot/insightd/agents"
	"github.com/insightbot/insightd/assistant"
	"github.com/insightbot/insightd/blobstore"
	"github.com/insightbot/insightd/config"
	"github.com/insightbot/insightd/llm"
	"github.com/insightbot/insightd/llm/anthropic"
	"github.com/insightbot/insightd/llm/openai"
	insightlogger "github.com/insightbot/insightd/logger"
	"github.com/insightbot/insightd/memory"
	"github.com/insightbot/insightd/server"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		logFile    = flag.String("logfile", "", "Path to log file. If not set, logs to stdout/stderr")
		pretty     = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
	)
	flag.Parse()

	// Validate that --logfile and --pretty are mutually exclusive
	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	// Initialize logger with options
	logger, err := insightlogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info().
		Str("addr", cfg.Server.Addr).
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Msg("insightd starting")

	// ---------------------------
	// 1. Blob store + Memory Manager
	// ---------------------------

	store, err := blobstore.NewS3Store(context.Background(), blobstore.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}

	manager := memory.NewManager(store, logger)
	if err := manager.EnsureShared(context.Background()); err != nil {
		return fmt.Errorf("failed to initialize shared memory: %w", err)
	}

	// ---------------------------
	// 2. LLM Client
	// ---------------------------

	client, err := newLLMClient(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	// ---------------------------
	// 3. Agent Loader + Assistant
	// ---------------------------

	loader := agents.NewLoader(store, manager, logger)

	asst := assistant.New(assistant.Config{
		Name:       cfg.Assistant.Name,
		Persona:    cfg.Assistant.Persona,
		Model:      cfg.LLM.Model,
		MaxRetries: cfg.Dispatch.MaxRetries,
		RetryDelay: cfg.Dispatch.RetryDelay,
	}, client, manager, logger)

	// ---------------------------
	// 4. HTTP Server
	// ---------------------------

	srv := server.New(server.Config{Addr: cfg.Server.Addr}, loader, asst, logger)
	if err := srv.Serve(context.Background()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info().Msg("insightd shutdown complete")
	return nil
}

// newLLMClient builds the provider client here rather than in the llm
// package to avoid import cycles between the provider subpackages.
func newLLMClient(cfg config.LLMConfig, logger zerolog.Logger) (llm.Client, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.New(cfg.APIKey, cfg.Endpoint, cfg.Model)
	case config.ProviderAzure:
		return openai.NewAzure(cfg.APIKey, cfg.Endpoint, cfg.APIVersion, cfg.Model)
	case config.ProviderAnthropic:
		return anthropic.New(cfg.AnthropicAPIKey, cfg.Model, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}
