package constants

import "time"

// API Server Constants
const (
	// DefaultAPIHost is the default API server host
	DefaultAPIHost = "localhost"

	// DefaultAPIPort is the default API server port
	DefaultAPIPort = 8080

	// MinPort is the minimum valid port number
	MinPort = 1

	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// DefaultReadTimeout is the default HTTP read timeout
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the default HTTP write timeout
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the default HTTP idle timeout
	DefaultIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default graceful shutdown timeout
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultMaxHeaderBytes is the default maximum request header size (1 MB)
	DefaultMaxHeaderBytes = 1 << 20 // 1 MB

	// DefaultRateLimitPerSecond is the default rate limit (requests per second)
	DefaultRateLimitPerSecond = 1000

	// DefaultRateLimitBurst is the default rate limit burst size
	DefaultRateLimitBurst = 2000
)

// API Paths
const (
	// DefaultGraphQLPath is the default GraphQL endpoint path
	DefaultGraphQLPath = "/graphql"

	// DefaultGraphQLPlaygroundPath is the default GraphQL playground path
	DefaultGraphQLPlaygroundPath = "/playground"
)

// Storage Constants
const (
	// DefaultBackend is the storage backend used when none is configured
	DefaultBackend = "pebble"

	// DefaultCacheSize is the default cache size in MB for PebbleDB
	DefaultCacheSize = 128 // MB

	// DefaultMaxOpenFiles is the default maximum number of open files for PebbleDB
	DefaultMaxOpenFiles = 1000

	// DefaultWriteBuffer is the default write buffer size in MB for PebbleDB
	DefaultWriteBuffer = 64 // MB

	// DefaultPostgresMaxConns is the default upper bound of the Postgres pool
	DefaultPostgresMaxConns = 20

	// DefaultPostgresMinConns is the default number of idle Postgres connections kept open
	DefaultPostgresMinConns = 2

	// DefaultConnMaxLifetime is how long a pooled Postgres connection may live
	DefaultConnMaxLifetime = 1 * time.Hour

	// DefaultConnMaxIdleTime is how long a pooled Postgres connection may sit idle
	DefaultConnMaxIdleTime = 30 * time.Minute
)

// Pagination Constants
const (
	// DefaultPageSize is the page size used when a connection request carries no size argument
	DefaultPageSize = 10

	// DefaultMaxPageSize is the largest page a single request may ask for
	DefaultMaxPageSize = 100

	// MinPageSize is the minimum offset-pagination page size
	MinPageSize = 1
)

// Query Constants
const (
	// DefaultQueryTimeout is the default timeout for a single storage query
	DefaultQueryTimeout = 30 * time.Second
)
