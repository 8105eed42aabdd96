package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/config"
	"github.com/afro-network/ceo-agent/internal/docker"
	"github.com/afro-network/ceo-agent/internal/executor"
	"github.com/afro-network/ceo-agent/internal/middleware"
	"github.com/afro-network/ceo-agent/internal/models"
	"github.com/afro-network/ceo-agent/internal/stack"
	"github.com/afro-network/ceo-agent/internal/utils"
)

// ServiceName is reported by the health endpoint
const ServiceName = "afro-ceo-agent"

// limiterCleanupInterval is how often idle per-IP limiters are dropped
const limiterCleanupInterval = 10 * time.Minute

// ComposeInspector describes the services of the compose file
type ComposeInspector interface {
	Services(ctx context.Context) (*models.ComposeServicesResponse, error)
}

// DockerBackend talks to the Docker Engine API
type DockerBackend interface {
	System(ctx context.Context) models.DockerSystemResponse
	FollowLogs(ctx context.Context, containerName string, tail int, emit func(docker.LogLine) error) error
}

// OperationHistory lists executed operations
type OperationHistory interface {
	List(ctx context.Context, kind models.OperationKind, limit int) ([]models.Operation, error)
}

// Server represents the API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	logger     *logrus.Logger
	authMW     *middleware.AuthMiddleware
	limiter    *utils.RateLimiter

	stack  *StackController
	logs   *LogsController
	system *SystemController
	ceo    *CEOController
}

// ServerConfig contains the configuration for the API server
type ServerConfig struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Dispatcher *stack.Dispatcher
	RepoSync   *stack.RepoSync
	Reconciler *stack.Reconciler
	Runner     executor.Runner
	AllowList  *executor.AllowList

	// Optional collaborators. A nil value makes its endpoints answer 503.
	Compose ComposeInspector
	Docker  DockerBackend
	History OperationHistory
	CEO     CEOService
	Auth    *middleware.AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("config is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("stack dispatcher is required")
	}
	if cfg.RepoSync == nil {
		return nil, errors.New("repository sync is required")
	}
	if cfg.Reconciler == nil {
		return nil, errors.New("status reconciler is required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("command runner is required")
	}
	if cfg.AllowList == nil {
		return nil, errors.New("command allow-list is required")
	}

	if err := utils.RegisterValidators(stack.IsKnownService); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	utils.SetLogger(cfg.Logger)

	authMW := cfg.Auth
	if authMW == nil {
		authMW = middleware.NewAuthMiddleware(nil, false)
	}

	s := &Server{
		config: cfg.Config,
		logger: cfg.Logger,
		authMW: authMW,
		stack: NewStackController(StackControllerConfig{
			Dispatcher: cfg.Dispatcher,
			RepoSync:   cfg.RepoSync,
			Reconciler: cfg.Reconciler,
			Runner:     cfg.Runner,
			AllowList:  cfg.AllowList,
			WorkingDir: cfg.Config.Stack.WorkingDir,
			History:    cfg.History,
			Logger:     cfg.Logger,
		}),
		logs:   NewLogsController(cfg.Runner, cfg.Docker, cfg.Config.Stack.WorkingDir, cfg.Logger),
		system: NewSystemController(cfg.Compose, cfg.Docker, cfg.Logger),
		ceo:    NewCEOController(cfg.CEO, cfg.Logger),
	}

	switch cfg.Config.Server.Mode {
	case "production", "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	if len(cfg.Config.Server.TrustedProxies) > 0 {
		if err := router.SetTrustedProxies(cfg.Config.Server.TrustedProxies); err != nil {
			return nil, fmt.Errorf("invalid trusted proxies: %w", err)
		}
	} else if err := router.SetTrustedProxies(nil); err != nil {
		return nil, fmt.Errorf("failed to reset trusted proxies: %w", err)
	}

	loggingMW := middleware.NewLoggingMiddleware(s.logger, middleware.WithSkipPaths("/health", "/api/health"))
	recoveryMW := middleware.NewRecoveryMiddleware(s.logger)

	router.Use(middleware.RequestIDMiddleware())
	if cfg.Config.Metrics.Enabled {
		router.Use(middleware.Metrics())
	}
	router.Use(loggingMW.Logger())
	router.Use(recoveryMW.Recovery())
	router.Use(utils.SecureHeaders(cfg.Config.Security.ContentSecurityPolicy, cfg.Config.Security.StrictTransportSec))
	router.Use(middleware.CORS(cfg.Config.Security.CORSOrigins...))

	if rl := cfg.Config.Security.RateLimiting; rl.Enabled {
		s.limiter = utils.NewWindowRateLimiter(rl.MaxPerIP, time.Duration(rl.WindowSecs)*time.Second)
		router.Use(utils.RateLimitMiddleware(s.limiter))
	}
	if max := cfg.Config.Server.MaxBodyBytes; max > 0 {
		router.Use(bodyLimit(max))
	}

	s.router = router
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Config.Server.Host, cfg.Config.Server.Port),
		Handler:           s.router,
		ReadTimeout:       cfg.Config.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Run listens on the configured address and serves until ctx is cancelled.
// A bind failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.limiter != nil {
		go s.cleanupLimiters(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("address", ln.Addr().String()).Info("Starting API server")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Shutdown()
	return <-errCh
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown() {
	s.logger.Info("Shutting down API server...")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("Error during server shutdown")
	}
	s.logger.Info("API server shutdown complete")
}

// Router returns the Gin router instance
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) cleanupLimiters(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.CleanupLimiters(limiterCleanupInterval)
		}
	}
}

// bodyLimit caps request bodies at max bytes
func bodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > max {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body is too large", "")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}
