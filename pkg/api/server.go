package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/0xmhha/ledger-query/internal/logger"
	"github.com/0xmhha/ledger-query/pkg/api/graphql"
	apimiddleware "github.com/0xmhha/ledger-query/pkg/api/middleware"
	"github.com/0xmhha/ledger-query/pkg/resolver"
	"github.com/0xmhha/ledger-query/pkg/storage"
)

// Server represents the API server
type Server struct {
	config   *Config
	logger   *zap.Logger
	exec     storage.Executor
	resolver *resolver.Resolver
	health   *HealthChecker
	limiter  *apimiddleware.RateLimiter
	gatherer prometheus.Gatherer
	router   *chi.Mux
	server   *http.Server
}

// ServerOptions contains optional configuration for the API server
type ServerOptions struct {
	// Query is the pagination policy; nil uses resolver.DefaultConfig
	Query *resolver.Config

	// Gatherer backs /metrics; nil uses the default Prometheus registry
	Gatherer prometheus.Gatherer
}

// NewServer creates a new API server over exec
func NewServer(config *Config, log *zap.Logger, exec storage.Executor, opts *ServerOptions) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts == nil {
		opts = &ServerOptions{}
	}

	res, err := resolver.NewResolver(exec, opts.Query, logger.WithComponent(log, logger.ComponentResolver))
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		config:   config,
		logger:   logger.WithComponent(log, logger.ComponentAPI),
		exec:     exec,
		resolver: res,
		health:   NewHealthChecker(config.Version, exec),
		gatherer: gatherer,
		router:   chi.NewRouter(),
	}

	s.setupMiddleware()
	if err := s.setupRoutes(log); err != nil {
		s.stopLimiter()
		return nil, err
	}

	s.server = &http.Server{
		Addr:           config.Address(),
		Handler:        s.router,
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s, nil
}

// setupMiddleware configures the middleware stack
func (s *Server) setupMiddleware() {
	// Recovery must be outermost
	s.router.Use(apimiddleware.Recovery(s.logger))
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(apimiddleware.LoggerWithLevel(s.logger))

	if s.config.EnableRateLimit {
		s.limiter = apimiddleware.NewRateLimiter(
			s.config.RateLimitPerSecond,
			s.config.RateLimitBurst,
			s.logger,
		)
		s.router.Use(s.limiter.Middleware)
		s.logger.Info("rate limiting enabled",
			zap.Float64("rate_per_second", s.config.RateLimitPerSecond),
			zap.Int("burst", s.config.RateLimitBurst),
		)
	}

	if s.config.EnableCORS {
		s.router.Use(apimiddleware.CORS(s.config.AllowedOrigins))
	}
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes(log *zap.Logger) error {
	s.router.Get("/health", s.health.HealthHandler())
	s.router.Get("/health/live", s.health.LivenessHandler())
	s.router.Get("/version", s.health.VersionHandler())
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	graphqlHandler, err := graphql.NewHandler(s.resolver, log)
	if err != nil {
		return fmt.Errorf("failed to create GraphQL handler: %w", err)
	}
	s.router.Handle(s.config.GraphQLPath, graphqlHandler)
	s.logger.Info("GraphQL API enabled", zap.String("path", s.config.GraphQLPath))

	if s.config.GraphQLPlaygroundPath != "" {
		s.router.Get(s.config.GraphQLPlaygroundPath, graphqlHandler.PlaygroundHandler(s.config.GraphQLPath))
		s.logger.Info("GraphQL playground enabled", zap.String("path", s.config.GraphQLPlaygroundPath))
	}
	return nil
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.Info("starting API server",
		zap.String("address", s.config.Address()),
		zap.String("backend", string(s.exec.Type())),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the API server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping API server")
	s.stopLimiter()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("API server stopped gracefully")
	return nil
}

func (s *Server) stopLimiter() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Router returns the underlying chi router (for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
