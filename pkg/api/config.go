package api

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/0xmhha/ledger-query/internal/constants"
)

// Config holds API server configuration
type Config struct {
	Host string
	Port int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderBytes  int

	EnableCORS     bool
	AllowedOrigins []string

	EnableRateLimit    bool
	RateLimitPerSecond float64
	RateLimitBurst     int

	GraphQLPath           string
	GraphQLPlaygroundPath string

	// Version is reported by /health and /version
	Version string
}

// DefaultConfig returns the default API server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:                  constants.DefaultAPIHost,
		Port:                  constants.DefaultAPIPort,
		ReadTimeout:           constants.DefaultReadTimeout,
		WriteTimeout:          constants.DefaultWriteTimeout,
		IdleTimeout:           constants.DefaultIdleTimeout,
		ShutdownTimeout:       constants.DefaultShutdownTimeout,
		MaxHeaderBytes:        constants.DefaultMaxHeaderBytes,
		AllowedOrigins:        []string{"*"},
		RateLimitPerSecond:    constants.DefaultRateLimitPerSecond,
		RateLimitBurst:        constants.DefaultRateLimitBurst,
		GraphQLPath:           constants.DefaultGraphQLPath,
		GraphQLPlaygroundPath: constants.DefaultGraphQLPlaygroundPath,
		Version:               "dev",
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.Port < constants.MinPort || c.Port > constants.MaxPort {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0 {
		return fmt.Errorf("timeouts cannot be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.GraphQLPath == "" || c.GraphQLPath[0] != '/' {
		return fmt.Errorf("graphql path must start with '/', got %q", c.GraphQLPath)
	}
	if c.GraphQLPlaygroundPath != "" && c.GraphQLPlaygroundPath[0] != '/' {
		return fmt.Errorf("playground path must start with '/', got %q", c.GraphQLPlaygroundPath)
	}
	if c.EnableCORS && len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("cors enabled without allowed origins")
	}
	if c.EnableRateLimit && (c.RateLimitPerSecond <= 0 || c.RateLimitBurst <= 0) {
		return fmt.Errorf("rate limit requires positive rate and burst")
	}
	return nil
}

// Address returns the listen address
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
