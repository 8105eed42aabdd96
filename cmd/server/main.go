// @title AFRO CEO Agent API
// @version 1.0
// @description Operations backend for the AFRO network: stack lifecycle, status, logs and the CEO agent.

// @license.name MIT

// @host localhost:3000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and an operator JWT. Example: "Bearer {token}"

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/api"
	"github.com/afro-network/ceo-agent/internal/auth"
	"github.com/afro-network/ceo-agent/internal/ceo"
	"github.com/afro-network/ceo-agent/internal/compose"
	"github.com/afro-network/ceo-agent/internal/config"
	"github.com/afro-network/ceo-agent/internal/database"
	"github.com/afro-network/ceo-agent/internal/database/repositories"
	"github.com/afro-network/ceo-agent/internal/docker"
	"github.com/afro-network/ceo-agent/internal/executor"
	"github.com/afro-network/ceo-agent/internal/github"
	"github.com/afro-network/ceo-agent/internal/llm"
	"github.com/afro-network/ceo-agent/internal/middleware"
	"github.com/afro-network/ceo-agent/internal/monitor"
	"github.com/afro-network/ceo-agent/internal/stack"
)

// Version information (will be set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	fmt.Printf("AFRO CEO Agent %s (%s) built on %s\n", Version, Commit, BuildDate)

	logger := initLogger()
	logger.WithFields(logrus.Fields{
		"version":    Version,
		"commit":     Commit,
		"build_date": BuildDate,
	}).Info("Starting AFRO CEO Agent")

	config.GetConfigManager().SetLogger(logger)
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Agent stopped with an error")
		os.Exit(1)
	}
	logger.Info("Server shutdown complete")
}

// initLogger initializes the logger with the LOG_LEVEL environment override
func initLogger() *logrus.Logger {
	logger := logrus.New()

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logger.WithError(err).Warn("Invalid log level, defaulting to info")
		} else {
			logger.SetLevel(level)
		}
	}

	return logger
}

// configureLogger applies the logging section. LOG_LEVEL still wins.
func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	if strings.EqualFold(cfg.Logging.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	}
	if os.Getenv("LOG_LEVEL") != "" || cfg.Logging.Level == "" {
		return
	}
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Warn("Invalid logging.level, keeping current level")
		return
	}
	logger.SetLevel(level)
}

// app holds every long-lived component of the agent
type app struct {
	db      database.Database
	docker  *docker.Manager
	monitor *monitor.Monitor
	server  *api.Server
}

// close releases the database and the Docker client
func (a *app) close(logger *logrus.Logger) {
	if a.docker != nil {
		if err := a.docker.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close Docker client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close database")
		}
	}
}

// run builds the agent, serves until ctx is cancelled and then stops the monitor
func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close(logger)

	config.GetConfigManager().Watch(func(e fsnotify.Event) {
		logger.WithField("file", e.Name).Info("Configuration change noted")
	})

	if a.monitor != nil {
		a.monitor.Start()
		defer func() {
			timeout := cfg.Server.ShutdownTimeout
			if timeout <= 0 {
				timeout = 30 * time.Second
			}
			stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := a.monitor.Stop(stopCtx); err != nil {
				logger.WithError(err).Warn("Network monitor did not stop cleanly")
			}
		}()
	}

	if err := a.server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildApp wires every component from the configuration
func buildApp(cfg *config.Config, logger *logrus.Logger) (*app, error) {
	a := &app{}

	db, err := database.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db

	operations := repositories.NewOperationRepository(db.DB())

	allow, err := executor.NewAllowList(cfg.Stack.AllowedPrefixes)
	if err != nil {
		a.close(logger)
		return nil, fmt.Errorf("failed to build command allow-list: %w", err)
	}

	runner := executor.New(
		executor.WithLogger(logger),
		executor.WithWorkingDir(cfg.Stack.WorkingDir),
		executor.WithTimeout(executor.Default, cfg.Stack.CommandTimeout),
		executor.WithTimeout(executor.Long, cfg.Stack.BuildTimeout),
		executor.WithMaxOutput(cfg.Stack.MaxOutputBytes),
	)

	registry := stack.MustDefaultRegistry()
	dispatcher := stack.NewDispatcher(registry, runner,
		stack.WithWorkingDir(cfg.Stack.WorkingDir),
		stack.WithEnforceModeSubset(cfg.Stack.EnforceModeSubset),
		stack.WithHistory(operations),
		stack.WithDispatcherLogger(logger),
	)
	repoSync := stack.NewRepoSync(runner, stack.RepoSyncConfig{
		WorkingDir:    cfg.Stack.WorkingDir,
		RepositoryURL: cfg.Stack.RepositoryURL,
		Branch:        cfg.Stack.RepositoryBranch,
		History:       operations,
		Logger:        logger,
	})

	dockerManager, err := docker.NewManager(dockerOptions(cfg, logger)...)
	if err != nil {
		a.close(logger)
		return nil, fmt.Errorf("failed to create Docker client manager: %w", err)
	}
	a.docker = dockerManager

	reconciler := stack.NewReconciler(newLister(cfg, runner, dockerManager, logger),
		stack.WithRetryPolicy(stack.RetryPolicy{
			Attempts: cfg.Stack.StatusRetries,
			Backoff:  cfg.Stack.StatusRetryBackoff,
		}),
		stack.WithReconcilerLogger(logger),
	)

	inspector := compose.NewInspector(compose.Config{
		WorkingDir:  cfg.Stack.WorkingDir,
		File:        cfg.Stack.ComposeFile,
		ProjectName: cfg.Stack.ProjectPrefix,
		Registry:    registry,
		Logger:      logger,
	})

	checker := monitor.NewChecker(monitor.Endpoints{
		MainnetRPC:      cfg.Network.MainnetRPCURL,
		TestnetRPC:      cfg.Network.TestnetRPCURL,
		MainnetExplorer: cfg.Network.MainnetExplorerURL,
		TestnetExplorer: cfg.Network.TestnetExplorerURL,
	}, cfg.Network.ProbeTimeout, nil, logger)

	issues := github.New(github.Config{
		Token:   cfg.GitHub.Token,
		Repo:    cfg.GitHub.Repo,
		APIURL:  cfg.GitHub.APIURL,
		Timeout: cfg.GitHub.Timeout,
		Logger:  logger,
	})
	if !issues.Enabled() {
		logger.Warn("GitHub token or repository not set; issue creation is disabled")
	}

	ollama := llm.NewOllamaClient(llm.Config{
		BaseURL:            cfg.Ollama.BaseURL,
		Model:              cfg.Ollama.Model,
		Timeout:            cfg.Ollama.Timeout,
		MainnetRPCURL:      cfg.Network.MainnetRPCURL,
		TestnetRPCURL:      cfg.Network.TestnetRPCURL,
		MainnetExplorerURL: cfg.Network.MainnetExplorerURL,
		TestnetExplorerURL: cfg.Network.TestnetExplorerURL,
		Logger:             logger,
	})

	ceoService, err := ceo.NewService(ceo.Config{
		LLM:           ollama,
		Status:        checker,
		Issues:        issues,
		Conversations: repositories.NewConversationRepository(db.DB()),
		Proposals:     repositories.NewProposalRepository(db.DB()),
		Agentic:       repositories.NewAgenticProposalRepository(db.DB()),
		Logger:        logger,
	})
	if err != nil {
		a.close(logger)
		return nil, fmt.Errorf("failed to create CEO service: %w", err)
	}

	if cfg.Network.MonitorEnabled {
		a.monitor, err = monitor.NewMonitor(monitor.Config{
			Schedule:  cfg.Network.MonitorSchedule,
			Source:    checker,
			Issues:    issues,
			Incidents: repositories.NewIncidentRepository(db.DB()),
			Logger:    logger,
		})
		if err != nil {
			a.close(logger)
			return nil, fmt.Errorf("failed to create network monitor: %w", err)
		}
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.Auth.Secret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.TokenIssuer,
	}, logger)

	a.server, err = api.NewServer(&api.ServerConfig{
		Config:     cfg,
		Logger:     logger,
		Dispatcher: dispatcher,
		RepoSync:   repoSync,
		Reconciler: reconciler,
		Runner:     runner,
		AllowList:  allow,
		Compose:    inspector,
		Docker:     dockerManager,
		History:    operations,
		CEO:        ceoService,
		Auth:       middleware.NewAuthMiddleware(tokens, cfg.Auth.Enabled),
	})
	if err != nil {
		a.close(logger)
		return nil, fmt.Errorf("failed to create API server: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"working_dir":   cfg.Stack.WorkingDir,
		"status_source": cfg.Stack.StatusSource,
		"auth":          cfg.Auth.Enabled,
		"monitor":       cfg.Network.MonitorEnabled,
		"model":         ollama.Model(),
	}).Info("Agent components initialized")

	return a, nil
}

// dockerOptions maps the docker section onto client options
func dockerOptions(cfg *config.Config, logger *logrus.Logger) []docker.ClientOption {
	opts := []docker.ClientOption{docker.WithLogger(logger)}

	if cfg.Docker.Host != "" {
		opts = append(opts, docker.WithHost(cfg.Docker.Host))
	}
	if cfg.Docker.APIVersion != "" {
		opts = append(opts, docker.WithAPIVersion(cfg.Docker.APIVersion))
	}
	if cfg.Docker.TLSVerify {
		opts = append(opts, docker.WithTLSConfig(true,
			cfg.Docker.TLSCertPath,
			cfg.Docker.TLSKeyPath,
			cfg.Docker.TLSCAPath,
		))
	}
	return opts
}

// newLister picks the container source for status reconciliation
func newLister(cfg *config.Config, runner executor.Runner, manager *docker.Manager, logger *logrus.Logger) stack.ContainerLister {
	if strings.EqualFold(cfg.Stack.StatusSource, "api") {
		logger.Info("Stack status reads containers from the Docker Engine API")
		return docker.NewAPILister(manager, cfg.Stack.ProjectPrefix)
	}
	return stack.NewCLILister(runner, cfg.Stack.ProjectPrefix)
}
