// Package mcp parses MCP command flags and wires the kingdom runtime behind
// the MCP server: store backend, engine, archive, and context integrations.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/tinykingdom/internal/platform/config"
	"github.com/louisbranch/tinykingdom/internal/platform/logging"
	"github.com/louisbranch/tinykingdom/internal/platform/otel"
	"github.com/louisbranch/tinykingdom/internal/platform/timeouts"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/archive"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/engine"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/integrations"
	kingdomservice "github.com/louisbranch/tinykingdom/internal/services/kingdom/service"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage/postgrest"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/storage/sqlite"
	mcpservice "github.com/louisbranch/tinykingdom/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	Transport string `env:"TINY_KINGDOM_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr  string `env:"TINY_KINGDOM_MCP_HTTP_ADDR" envDefault:"localhost:8080"`

	DBPath             string `env:"TINY_KINGDOM_DB_PATH" envDefault:"tinykingdom.db"`
	SupabaseURL        string `env:"TINY_KINGDOM_SUPABASE_URL"`
	SupabaseServiceKey string `env:"TINY_KINGDOM_SUPABASE_SERVICE_KEY"`
	ArchiveDir         string `env:"TINY_KINGDOM_ARCHIVE_DIR"`

	OpenAIBaseURL     string  `env:"TINY_KINGDOM_OPENAI_BASE_URL"`
	OpenAIAPIKey      string  `env:"TINY_KINGDOM_OPENAI_API_KEY"`
	OpenAIModel       string  `env:"TINY_KINGDOM_OPENAI_MODEL"`
	OpenAITemperature float64 `env:"TINY_KINGDOM_OPENAI_TEMPERATURE"`

	GiphyAPIKey string `env:"TINY_KINGDOM_GIPHY_API_KEY"`

	MaxBytes      int           `env:"TINY_KINGDOM_MAX_BYTES"`
	MaxLogEntries int           `env:"TINY_KINGDOM_MAX_LOG_ENTRIES"`
	MaxFieldChars int           `env:"TINY_KINGDOM_MAX_FIELD_CHARS"`
	CallTimeout   time.Duration `env:"TINY_KINGDOM_CALL_TIMEOUT"`
	BusyPolicy    string        `env:"TINY_KINGDOM_BUSY_POLICY" envDefault:"queue"`

	Debug bool `env:"TINY_KINGDOM_DEBUG" envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport kind: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address (http transport)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.ArchiveDir, "archive-dir", cfg.ArchiveDir, "directory for committed snapshots (empty disables)")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run wires the kingdom lifecycle service behind the MCP server and serves
// until the context ends.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdown, err := otel.Setup(ctx, "tinykingdom-mcp")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.Error(err))
		}
	}()

	store, cycles, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	eng, err := engine.NewOpenAI(engine.OpenAIConfig{
		BaseURL:     cfg.OpenAIBaseURL,
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		Temperature: cfg.OpenAITemperature,
	})
	if err != nil {
		return fmt.Errorf("configure engine: %w", err)
	}

	var archiver kingdomservice.Archiver
	if cfg.ArchiveDir != "" {
		snapshots, err := archive.Open(cfg.ArchiveDir)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		archiver = snapshots
	}

	limits := domain.DefaultLimits()
	if cfg.MaxBytes > 0 {
		limits.MaxBytes = cfg.MaxBytes
	}
	if cfg.MaxLogEntries > 0 {
		limits.MaxLogEntries = cfg.MaxLogEntries
	}
	if cfg.MaxFieldChars > 0 {
		limits.MaxFieldChars = cfg.MaxFieldChars
	}

	lifecycle, err := kingdomservice.New(kingdomservice.Deps{
		Store:   store,
		Engine:  eng,
		Cycles:  cycles,
		Archive: archiver,
		Logger:  logger,
	}, kingdomservice.Config{
		Limits:        limits,
		BusyPolicy:    kingdomservice.BusyPolicy(cfg.BusyPolicy),
		EngineTimeout: cfg.CallTimeout,
		StoreTimeout:  cfg.CallTimeout,
	})
	if err != nil {
		return fmt.Errorf("build kingdom service: %w", err)
	}

	feeds := integrations.New(integrations.Config{GiphyAPIKey: cfg.GiphyAPIKey})

	server, err := mcpservice.New(mcpservice.Deps{
		Lifecycle: lifecycle,
		Weather:   feeds,
		News:      feeds,
		Media:     feeds,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("build MCP server: %w", err)
	}

	logger.Info("starting tiny kingdom MCP",
		zap.String("transport", cfg.Transport),
		zap.String("backend", backendName(cfg)),
		zap.Bool("archive", cfg.ArchiveDir != ""),
	)

	return server.Run(ctx, mcpservice.Config{
		Transport: mcpservice.TransportKind(cfg.Transport),
		HTTPAddr:  cfg.HTTPAddr,
	})
}

// openStore selects the document backend: Supabase PostgREST when configured,
// the local sqlite file otherwise. Only sqlite carries the cycle audit log.
func openStore(cfg Config) (storage.Store, storage.CycleLog, func(), error) {
	if cfg.SupabaseURL != "" {
		store, err := postgrest.New(postgrest.Config{
			BaseURL: cfg.SupabaseURL,
			APIKey:  cfg.SupabaseServiceKey,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("configure postgrest store: %w", err)
		}
		return store, nil, func() {}, nil
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, store, func() { _ = store.Close() }, nil
}

func backendName(cfg Config) string {
	if cfg.SupabaseURL != "" {
		return "postgrest"
	}
	return "sqlite"
}
