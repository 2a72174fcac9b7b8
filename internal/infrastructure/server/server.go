package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/portbridge/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/host"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/messaging"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/domain/port"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/portbridge/internal/providers/worker"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *nethttp.Server
	host     *host.Host
	registry *port.Registry
	manager  *messaging.Manager
	workers  *worker.Pool
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Initializing portbridge",
		zap.String("port", cfg.Server.Port),
		zap.Int("worker_pool", cfg.Worker.PoolSize),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()

	// Native ports, their wrappers and the bridge between them
	nativeHost := host.New(host.Config{MaxQueueDepth: cfg.Host.MaxQueueDepth}).
		WithMetrics(metrics).
		WithLogger(logger.Logger)
	registry := port.NewRegistry().
		WithMetrics(metrics).
		WithLogger(logger.Logger)
	manager := messaging.NewManager(nativeHost, registry, messaging.Config{
		CompressThreshold: cfg.Messaging.CompressThreshold,
	}).WithMetrics(metrics).WithLogger(logger.Logger)

	workerConfig := worker.DefaultConfig()
	workerConfig.Timeout = cfg.Worker.Timeout
	workerConfig.MaxPorts = cfg.Worker.MaxPorts
	workerConfig.EnableConsole = cfg.Worker.EnableConsole

	workers, err := worker.NewPool(workerConfig, manager, cfg.Worker.PoolSize)
	if err != nil {
		metrics.Close()
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	workers.WithMetrics(metrics).
		WithLogger(logger.Logger).
		WithAcquireTimeout(cfg.Worker.AcquireTimeout)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Logger))
	router.Use(middleware.Recovery(logger.Logger))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := http.NewHandlers(manager, workers, metrics, logger.Logger)
	http.RegisterRoutes(router, handlers)

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &nethttp.Server{
			Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
		host:     nativeHost,
		registry: registry,
		manager:  manager,
		workers:  workers,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

// Run serves HTTP until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx ends
// and then releases the worker pool.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(err))
	}
	return errors.Join(err, s.Close())
}

// Close releases workers and metrics without waiting for requests
func (s *Server) Close() error {
	err := s.workers.Close()
	if err != nil {
		s.logger.Error("Failed to close worker pool", zap.Error(err))
	}

	stats := s.host.Stats()
	s.logger.Info("Server closed",
		zap.Int("open_ports", stats.Ports),
		zap.Int("wrappers", s.registry.Len()),
	)

	s.metrics.Close()

	// Sync logger before exit
	s.logger.Sync()
	return err
}
