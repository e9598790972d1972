package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/internal/config"
	"github.com/0xmhha/ledger-query/internal/logger"
	"github.com/0xmhha/ledger-query/pkg/api"
	"github.com/0xmhha/ledger-query/pkg/resolver"
	"github.com/0xmhha/ledger-query/pkg/storage"
)

var (
	// Version information (injected at build time)
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to configuration file (YAML)")
		showVersion = flag.Bool("version", false, "Show version information and exit")
		backend     = flag.String("backend", "", "Storage backend (pebble, postgres, memory)")
		dbPath      = flag.String("db", "", "Pebble database path")
		dbURL       = flag.String("db-url", "", "PostgreSQL connection string")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		logFormat   = flag.String("log-format", "", "Log format (json, console)")
		apiHost     = flag.String("api-host", "", "API server host")
		apiPort     = flag.Int("api-port", 0, "API server port")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ledger-query version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", buildTime)
		os.Exit(0)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	applyFlags(cfg, *backend, *dbPath, *dbURL, *logLevel, *logFormat, *apiHost, *apiPort)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("ledger-query stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("Starting ledger-query",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_time", buildTime),
		zap.String("backend", cfg.Database.Backend),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exec, err := openStorage(cfg, log, reg)
	if err != nil {
		return err
	}
	defer func() {
		if err := exec.Close(); err != nil {
			log.Error("Failed to close storage", zap.Error(err))
		}
	}()

	apiConfig := api.DefaultConfig()
	apiConfig.Host = cfg.API.Host
	apiConfig.Port = cfg.API.Port
	apiConfig.EnableCORS = cfg.API.EnableCORS
	apiConfig.AllowedOrigins = cfg.API.AllowedOrigins
	apiConfig.EnableRateLimit = cfg.API.EnableRateLimit
	apiConfig.RateLimitPerSecond = cfg.API.RateLimitPerSecond
	apiConfig.RateLimitBurst = cfg.API.RateLimitBurst
	apiConfig.Version = version

	server, err := api.NewServer(apiConfig, log, exec, &api.ServerOptions{
		Query: &resolver.Config{
			DefaultPageSize: cfg.Query.DefaultPageSize,
			MaxPageSize:     cfg.Query.MaxPageSize,
		},
		Gatherer: reg,
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down gracefully...")
	if err := server.Stop(context.Background()); err != nil {
		return fmt.Errorf("failed to stop API server gracefully: %w", err)
	}

	log.Info("ledger-query stopped")
	return nil
}

// openStorage opens the configured backend and wraps it with query metrics
func openStorage(cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (storage.Executor, error) {
	storageLog := logger.WithComponent(log, logger.ComponentStorage)

	backendConfig := storage.DefaultBackendConfig(storage.BackendType(cfg.Database.Backend), cfg.Database.Path)
	backendConfig.ConnectionString = cfg.Database.URL
	backendConfig.ReadOnly = cfg.Database.ReadOnly
	backendConfig.QueryTimeout = cfg.Database.QueryTimeout
	backendConfig.MaxConns = cfg.Database.MaxConns
	backendConfig.MinConns = cfg.Database.MinConns

	exec, err := storage.CreateBackend(backendConfig, storageLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Database.Backend, err)
	}

	log.Info("Storage initialized",
		zap.String("backend", cfg.Database.Backend),
		zap.String("path", cfg.Database.Path),
		zap.Bool("readonly", cfg.Database.ReadOnly),
	)

	metrics := storage.NewMetrics(reg, "", "")
	return storage.NewInstrumentedExecutor(exec, metrics, storageLog), nil
}

// loadConfig loads configuration from .env, file and environment variables.
// Validation runs after command-line flags are applied.
func loadConfig(configFile string) (*config.Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return config.Read(configFile)
}

// loadDotEnv loads environment variables from a .env file if it exists
func loadDotEnv() error {
	info, err := os.Stat(".env")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat .env: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf(".env exists but is a directory")
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// applyFlags applies command-line flags to configuration
func applyFlags(cfg *config.Config, backend, dbPath, dbURL, logLevel, logFormat, apiHost string, apiPort int) {
	if backend != "" {
		cfg.Database.Backend = backend
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if apiHost != "" {
		cfg.API.Host = apiHost
	}
	if apiPort > 0 {
		cfg.API.Port = apiPort
	}
}
