// Package resolver turns query descriptors into entities, connections, pages and
// aggregates, mapping storage outcomes onto typed errors.
package resolver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/internal/constants"
	"github.com/0xmhha/ledger-query/pkg/storage"
)

// Config holds pagination policy
type Config struct {
	// DefaultPageSize applies when a request carries no usable size argument
	DefaultPageSize int

	// MaxPageSize caps every page
	MaxPageSize int
}

// DefaultConfig returns the default pagination policy
func DefaultConfig() *Config {
	return &Config{
		DefaultPageSize: constants.DefaultPageSize,
		MaxPageSize:     constants.DefaultMaxPageSize,
	}
}

// Validate checks the pagination policy
func (c *Config) Validate() error {
	if c.DefaultPageSize < constants.MinPageSize {
		return fmt.Errorf("default page size must be at least %d, got %d", constants.MinPageSize, c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("max page size %d is below default page size %d", c.MaxPageSize, c.DefaultPageSize)
	}
	return nil
}

// Resolver executes ledger queries. It holds no per-request state and is safe for concurrent use.
type Resolver struct {
	exec   storage.Executor
	config Config
	logger *zap.Logger
}

// NewResolver creates a resolver over exec
func NewResolver(exec storage.Executor, config *Config, logger *zap.Logger) (*Resolver, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid resolver config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		exec:   exec,
		config: *config,
		logger: logger,
	}, nil
}

// Config returns the pagination policy in effect
func (r *Resolver) Config() Config {
	return r.config
}

// fail logs internal failures and passes every error through unchanged
func (r *Resolver) fail(op string, err *Error) *Error {
	if err.Kind == KindInternal {
		r.logger.Error("query failed", zap.String("op", op), zap.Error(err.Err))
	}
	return err
}
