package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/zettelhub/hub/internal/api/http"
	"github.com/zettelhub/hub/internal/api/middleware"
	"github.com/zettelhub/hub/internal/api/ws"
	"github.com/zettelhub/hub/internal/domain/hub"
	"github.com/zettelhub/hub/internal/infrastructure/config"
	"github.com/zettelhub/hub/internal/infrastructure/logging"
	"github.com/zettelhub/hub/internal/infrastructure/monitoring"
	"github.com/zettelhub/hub/internal/infrastructure/tracing"
	"github.com/zettelhub/hub/internal/remote"
	"github.com/zettelhub/hub/internal/store"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	srv     *http.Server
	hub     *hub.Hub
	store   store.Store
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else if l, err := logging.New(logging.Config{Level: cfg.Logging.Level}); err == nil {
		logger = l
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing ZettelHub",
		zap.String("port", cfg.Server.Port),
		zap.String("remote", cfg.Remote.BaseURL),
		zap.String("storage", cfg.Storage.Path),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("hub", logger.Logger)

	st, err := store.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := remote.NewClient(remote.Config{
		BaseURL:      cfg.Remote.BaseURL,
		Timeout:      cfg.Remote.Timeout,
		RetryMax:     cfg.Remote.RetryMax,
		RetryWaitMin: cfg.Remote.RetryWaitMin,
		RetryWaitMax: cfg.Remote.RetryWaitMax,
	}, logger).WithObserver(metrics)

	h := hub.New(st, client, logger, metrics)
	h.Bootstrap(context.Background())

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	handlers := apihttp.NewHandlers(h, logger)
	wsHandler := ws.NewHandler(h, logger, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Renderer state
	router.GET("/state", handlers.State)
	router.GET("/stream", wsHandler.HandleConnection)

	// Session intents
	router.POST("/sessions", handlers.CreateSession)
	router.POST("/sessions/:id/select", handlers.SelectSession)

	// Conversation
	router.POST("/chat", handlers.Chat)

	// Document library
	router.POST("/documents/refresh", handlers.RefreshDocuments)

	// Metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		hub:     h,
		store:   st,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Hub exposes the state container, mainly for tests.
func (s *Server) Hub() *hub.Hub {
	return s.hub
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.srv = &http.Server{Addr: addr, Handler: s.router}
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	if s.srv != nil {
		if err := s.srv.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown failed", zap.Error(err))
			return err
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close session store", zap.Error(err))
		return fmt.Errorf("failed to close session store: %w", err)
	}

	s.logger.Sync()
	return nil
}
