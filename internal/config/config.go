package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/ledger-query/internal/constants"
)

// Config holds all configuration for the query service
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	API      APIConfig      `yaml:"api"`
	Query    QueryConfig    `yaml:"query"`
}

// DatabaseConfig holds storage backend configuration
type DatabaseConfig struct {
	// Backend is one of "pebble", "postgres", "memory"
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	URL      string `yaml:"url"`
	ReadOnly bool   `yaml:"readonly"`

	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxConns     int32         `yaml:"max_conns"`
	MinConns     int32         `yaml:"min_conns"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// APIConfig holds API server configuration
type APIConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	EnableCORS         bool     `yaml:"cors"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	EnableRateLimit    bool     `yaml:"rate_limit"`
	RateLimitPerSecond float64  `yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
}

// QueryConfig holds pagination policy
type QueryConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every unset field with its default
func (c *Config) SetDefaults() {
	if c.Database.Backend == "" {
		c.Database.Backend = constants.DefaultBackend
	}
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = constants.DefaultQueryTimeout
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = constants.DefaultPostgresMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = constants.DefaultPostgresMinConns
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.API.Host == "" {
		c.API.Host = constants.DefaultAPIHost
	}
	if c.API.Port == 0 {
		c.API.Port = constants.DefaultAPIPort
	}
	if c.API.AllowedOrigins == nil {
		c.API.AllowedOrigins = []string{"*"}
	}
	if c.API.RateLimitPerSecond == 0 {
		c.API.RateLimitPerSecond = constants.DefaultRateLimitPerSecond
	}
	if c.API.RateLimitBurst == 0 {
		c.API.RateLimitBurst = constants.DefaultRateLimitBurst
	}

	if c.Query.DefaultPageSize == 0 {
		c.Query.DefaultPageSize = constants.DefaultPageSize
	}
	if c.Query.MaxPageSize == 0 {
		c.Query.MaxPageSize = constants.DefaultMaxPageSize
	}
}

// LoadFromEnv overrides configuration with LEDGER_QUERY_* environment variables
func (c *Config) LoadFromEnv() error {
	// Database configuration
	if backend := os.Getenv("LEDGER_QUERY_DB_BACKEND"); backend != "" {
		c.Database.Backend = backend
	}
	if path := os.Getenv("LEDGER_QUERY_DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if url := os.Getenv("LEDGER_QUERY_DB_URL"); url != "" {
		c.Database.URL = url
	}
	if readonly := os.Getenv("LEDGER_QUERY_DB_READONLY"); readonly != "" {
		val, err := strconv.ParseBool(readonly)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_DB_READONLY: %w", err)
		}
		c.Database.ReadOnly = val
	}
	if timeout := os.Getenv("LEDGER_QUERY_DB_QUERY_TIMEOUT"); timeout != "" {
		duration, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_DB_QUERY_TIMEOUT: %w", err)
		}
		c.Database.QueryTimeout = duration
	}
	if maxConns := os.Getenv("LEDGER_QUERY_DB_MAX_CONNS"); maxConns != "" {
		val, err := strconv.ParseInt(maxConns, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_DB_MAX_CONNS: %w", err)
		}
		c.Database.MaxConns = int32(val)
	}
	if minConns := os.Getenv("LEDGER_QUERY_DB_MIN_CONNS"); minConns != "" {
		val, err := strconv.ParseInt(minConns, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_DB_MIN_CONNS: %w", err)
		}
		c.Database.MinConns = int32(val)
	}

	// Log configuration
	if level := os.Getenv("LEDGER_QUERY_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("LEDGER_QUERY_LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}

	// API configuration
	if host := os.Getenv("LEDGER_QUERY_API_HOST"); host != "" {
		c.API.Host = host
	}
	if port := os.Getenv("LEDGER_QUERY_API_PORT"); port != "" {
		val, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_API_PORT: %w", err)
		}
		c.API.Port = val
	}
	if enableCORS := os.Getenv("LEDGER_QUERY_API_CORS_ENABLED"); enableCORS != "" {
		val, err := strconv.ParseBool(enableCORS)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_API_CORS_ENABLED: %w", err)
		}
		c.API.EnableCORS = val
	}
	if allowedOrigins := os.Getenv("LEDGER_QUERY_API_CORS_ALLOWED_ORIGINS"); allowedOrigins != "" {
		c.API.AllowedOrigins = splitList(allowedOrigins, []string{"*"})
	}
	if enableRateLimit := os.Getenv("LEDGER_QUERY_API_RATE_LIMIT"); enableRateLimit != "" {
		val, err := strconv.ParseBool(enableRateLimit)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_API_RATE_LIMIT: %w", err)
		}
		c.API.EnableRateLimit = val
	}
	if perSecond := os.Getenv("LEDGER_QUERY_API_RATE_LIMIT_PER_SECOND"); perSecond != "" {
		val, err := strconv.ParseFloat(perSecond, 64)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_API_RATE_LIMIT_PER_SECOND: %w", err)
		}
		c.API.RateLimitPerSecond = val
	}
	if burst := os.Getenv("LEDGER_QUERY_API_RATE_LIMIT_BURST"); burst != "" {
		val, err := strconv.Atoi(burst)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_API_RATE_LIMIT_BURST: %w", err)
		}
		c.API.RateLimitBurst = val
	}

	// Query configuration
	if size := os.Getenv("LEDGER_QUERY_DEFAULT_PAGE_SIZE"); size != "" {
		val, err := strconv.Atoi(size)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_DEFAULT_PAGE_SIZE: %w", err)
		}
		c.Query.DefaultPageSize = val
	}
	if size := os.Getenv("LEDGER_QUERY_MAX_PAGE_SIZE"); size != "" {
		val, err := strconv.Atoi(size)
		if err != nil {
			return fmt.Errorf("invalid LEDGER_QUERY_MAX_PAGE_SIZE: %w", err)
		}
		c.Query.MaxPageSize = val
	}

	return nil
}

func splitList(raw string, fallback []string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Backend {
	case "pebble":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for the pebble backend")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database url is required for the postgres backend")
		}
		if c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("database min_conns %d exceeds max_conns %d", c.Database.MinConns, c.Database.MaxConns)
		}
	case "memory":
	default:
		return fmt.Errorf("invalid database backend %q, must be one of: pebble, postgres, memory", c.Database.Backend)
	}
	if c.Database.QueryTimeout < 0 {
		return fmt.Errorf("database query timeout cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Log.Level)
	}

	validLogFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, console", c.Log.Format)
	}

	if c.API.Port < constants.MinPort || c.API.Port > constants.MaxPort {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	if c.API.EnableRateLimit {
		if c.API.RateLimitPerSecond <= 0 {
			return fmt.Errorf("rate limit per second must be positive")
		}
		if c.API.RateLimitBurst <= 0 {
			return fmt.Errorf("rate limit burst must be positive")
		}
	}

	if c.Query.DefaultPageSize < constants.MinPageSize {
		return fmt.Errorf("default page size must be at least %d", constants.MinPageSize)
	}
	if c.Query.MaxPageSize < c.Query.DefaultPageSize {
		return fmt.Errorf("max page size %d is below default page size %d", c.Query.MaxPageSize, c.Query.DefaultPageSize)
	}

	return nil
}

// Read loads configuration without validating it, in the following order:
// 1. Load from file (if provided)
// 2. Load from environment variables (override file)
// 3. Set defaults for anything still unset
func Read(configFile string) (*Config, error) {
	cfg := &Config{}

	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	cfg.SetDefaults()
	return cfg, nil
}

// Load reads configuration and validates it
func Load(configFile string) (*Config, error) {
	cfg, err := Read(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
