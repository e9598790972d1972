package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/internal/constants"
)

// BackendType identifies the type of storage backend
type BackendType string

const (
	// BackendTypePebble represents PebbleDB backend
	BackendTypePebble BackendType = "pebble"

	// BackendTypePostgres represents PostgreSQL backend
	BackendTypePostgres BackendType = "postgres"

	// BackendTypeMemory represents in-memory backend (for testing)
	BackendTypeMemory BackendType = "memory"
)

// BackendConfig holds backend-specific configuration
type BackendConfig struct {
	// Type specifies the backend type
	Type BackendType

	// Path is the database path (for file-based backends)
	Path string

	// ConnectionString for database backends (PostgreSQL)
	ConnectionString string

	// Cache size in MB
	Cache int

	// MaxOpenFiles for file-based backends
	MaxOpenFiles int

	// WriteBuffer size in MB
	WriteBuffer int

	// ReadOnly opens the backend in read-only mode
	ReadOnly bool

	// QueryTimeout bounds every query; zero disables the bound
	QueryTimeout time.Duration

	// MaxConns and MinConns size the connection pool
	MaxConns int32
	MinConns int32
}

// DefaultBackendConfig returns default backend configuration
func DefaultBackendConfig(backendType BackendType, path string) *BackendConfig {
	return &BackendConfig{
		Type:         backendType,
		Path:         path,
		Cache:        constants.DefaultCacheSize,
		MaxOpenFiles: constants.DefaultMaxOpenFiles,
		WriteBuffer:  constants.DefaultWriteBuffer,
		ReadOnly:     false,
		QueryTimeout: constants.DefaultQueryTimeout,
		MaxConns:     constants.DefaultPostgresMaxConns,
		MinConns:     constants.DefaultPostgresMinConns,
	}
}

// BackendFactory creates an Executor instance. Backends that accept writes also implement Writer.
type BackendFactory func(config *BackendConfig, logger *zap.Logger) (Executor, error)

// BackendMetadata contains information about a registered backend
type BackendMetadata struct {
	// Name is the human-readable name
	Name string

	// Description describes the backend
	Description string

	// Features lists supported features
	Features []string
}

// BackendRegistry manages storage backend registrations
type BackendRegistry struct {
	mu        sync.RWMutex
	factories map[BackendType]BackendFactory
	metadata  map[BackendType]*BackendMetadata
}

// global backend registry instance
var (
	globalBackendRegistry     *BackendRegistry
	globalBackendRegistryOnce sync.Once
)

// GlobalBackendRegistry returns the global backend registry instance
func GlobalBackendRegistry() *BackendRegistry {
	globalBackendRegistryOnce.Do(func() {
		globalBackendRegistry = NewBackendRegistry()
		globalBackendRegistry.MustRegister(BackendTypeMemory, newMemoryStore, &BackendMetadata{
			Name:        "memory",
			Description: "In-process tables, for tests and fixtures",
			Features:    []string{"read", "write"},
		})
		globalBackendRegistry.MustRegister(BackendTypePebble, newPebbleStore, &BackendMetadata{
			Name:        "pebble",
			Description: "Embedded PebbleDB key-value store",
			Features:    []string{"read", "write", "readonly"},
		})
		globalBackendRegistry.MustRegister(BackendTypePostgres, newPostgresStore, &BackendMetadata{
			Name:        "postgres",
			Description: "PostgreSQL via pgx connection pool",
			Features:    []string{"read", "sql"},
		})
	})
	return globalBackendRegistry
}

// NewBackendRegistry creates a new backend registry
func NewBackendRegistry() *BackendRegistry {
	return &BackendRegistry{
		factories: make(map[BackendType]BackendFactory),
		metadata:  make(map[BackendType]*BackendMetadata),
	}
}

// Register adds a backend factory to the registry
func (r *BackendRegistry) Register(backendType BackendType, factory BackendFactory, metadata *BackendMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[backendType]; exists {
		return fmt.Errorf("backend type %s is already registered", backendType)
	}

	r.factories[backendType] = factory
	if metadata != nil {
		r.metadata[backendType] = metadata
	}

	return nil
}

// MustRegister registers a backend factory and panics on error
func (r *BackendRegistry) MustRegister(backendType BackendType, factory BackendFactory, metadata *BackendMetadata) {
	if err := r.Register(backendType, factory, metadata); err != nil {
		panic(fmt.Sprintf("failed to register storage backend: %v", err))
	}
}

// Create creates a new backend instance
func (r *BackendRegistry) Create(config *BackendConfig, logger *zap.Logger) (Executor, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	r.mu.RLock()
	factory, exists := r.factories[config.Type]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown backend type: %s (available: %v)", config.Type, r.SupportedTypes())
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	return factory(config, logger)
}

// Has checks if a backend type is registered
func (r *BackendRegistry) Has(backendType BackendType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[backendType]
	return exists
}

// SupportedTypes returns all registered backend types, sorted
func (r *BackendRegistry) SupportedTypes() []BackendType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]BackendType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// GetMetadata returns metadata for a registered backend type
func (r *BackendRegistry) GetMetadata(backendType BackendType) (*BackendMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, exists := r.metadata[backendType]
	return meta, exists
}

// =============================================================================
// Global convenience functions
// =============================================================================

// CreateBackend creates a new backend instance from the global registry
func CreateBackend(config *BackendConfig, logger *zap.Logger) (Executor, error) {
	return GlobalBackendRegistry().Create(config, logger)
}

// HasBackend checks if a backend type is registered
func HasBackend(backendType BackendType) bool {
	return GlobalBackendRegistry().Has(backendType)
}

// SupportedBackends returns all registered backend types
func SupportedBackends() []BackendType {
	return GlobalBackendRegistry().SupportedTypes()
}
