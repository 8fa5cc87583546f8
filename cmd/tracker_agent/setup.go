package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcus/talent-tracker/internal/analysis"
	"github.com/marcus/talent-tracker/internal/assembly"
	"github.com/marcus/talent-tracker/internal/config"
	"github.com/marcus/talent-tracker/internal/db"
	"github.com/marcus/talent-tracker/internal/llm"
	"github.com/marcus/talent-tracker/internal/orchestrator"
	"github.com/marcus/talent-tracker/internal/storage"
)

// processingFlags are the flags shared by the commands that talk to the
// database and the inference provider.
type processingFlags struct {
	configPath  string
	apiKey      string
	databaseURL string
	useBrowser  bool
	verbose     bool
}

func (f *processingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().BoolVar(&f.useBrowser, "use-browser", false, "Use headless browser for SPA attachment URLs (requires Chrome)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")
}

// resolve merges the config file, CLI overrides, and environment into one
// validated Config. Flags win over the file; the file wins over env defaults.
func (f *processingFlags) resolve(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
		if f.verbose {
			fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", f.configPath)
		}
	}

	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = f.useBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = f.verbose
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	return cfg, nil
}

// orchestratorConfig maps file-level knobs onto the orchestrator defaults.
func orchestratorConfig(cfg config.Config) orchestrator.Config {
	oc := orchestrator.DefaultConfig()
	if cfg.MaxAttempts > 0 {
		oc.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.StalenessMinutes > 0 {
		oc.Staleness = time.Duration(cfg.StalenessMinutes) * time.Minute
	}
	if cfg.MaxConcurrent > 0 {
		oc.MaxConcurrent = cfg.MaxConcurrent
	}
	return oc
}

// processingEnv is the wired set of components a processing command runs
// against. Close releases the database pool and the inference client.
type processingEnv struct {
	db   *db.DB
	llm  llm.Client
	orch *orchestrator.Orchestrator
}

func (e *processingEnv) Close() {
	if e.llm != nil {
		_ = e.llm.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
}

func newProcessingEnv(ctx context.Context, cfg config.Config) (*processingEnv, error) {
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}

	fetcher := storage.NewClient(60 * time.Second)
	fetcher.UseBrowser = cfg.UseBrowser
	fetcher.Verbose = cfg.Verbose

	orch := orchestrator.New(
		database,
		assembly.NewAssembler(database, fetcher),
		analysis.NewExecutor(llmClient),
		orchestratorConfig(cfg),
	)

	return &processingEnv{db: database, llm: llmClient, orch: orch}, nil
}
