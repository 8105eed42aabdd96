package stack

import (
	"context"
	"strings"

	"github.com/afro-network/ceo-agent/internal/executor"
	"github.com/afro-network/ceo-agent/internal/models"
	"github.com/afro-network/ceo-agent/internal/utils"
	"github.com/sirupsen/logrus"
)

// GitOperation is a repository sync action
type GitOperation string

const (
	GitClone GitOperation = "clone"
	GitPull  GitOperation = "pull"
	GitBuild GitOperation = "build"
)

// RepoSync runs the fixed clone, pull and build commands. Nothing from the
// request is interpolated into them.
type RepoSync struct {
	runner     executor.Runner
	workingDir string
	repoURL    string
	branch     string
	history    History
	busy       chan struct{}
	log        *logrus.Logger
}

// RepoSyncConfig configures a RepoSync
type RepoSyncConfig struct {
	WorkingDir    string
	RepositoryURL string
	Branch        string
	History       History
	Logger        *logrus.Logger
}

// NewRepoSync creates a RepoSync
func NewRepoSync(runner executor.Runner, cfg RepoSyncConfig) *RepoSync {
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &RepoSync{
		runner:     runner,
		workingDir: cfg.WorkingDir,
		repoURL:    cfg.RepositoryURL,
		branch:     cfg.Branch,
		history:    cfg.History,
		busy:       make(chan struct{}, 1),
		log:        cfg.Logger,
	}
}

// Command returns the command for a repository operation
func (s *RepoSync) Command(op GitOperation) (executor.Command, error) {
	switch op {
	case GitPull:
		return executor.Command{
			Name:  "git",
			Args:  []string{"pull", "origin", s.branch},
			Class: executor.Default,
		}, nil
	case GitBuild:
		return executor.Command{
			Name:  "docker-compose",
			Args:  []string{"build", "--no-cache"},
			Class: executor.Long,
		}, nil
	case GitClone:
		if s.repoURL == "" {
			return executor.Command{}, &ValidationError{Err: ErrRepositoryNotConfigured}
		}
		return executor.Command{
			Name:  "git",
			Args:  []string{"clone", "--branch", s.branch, s.repoURL, "."},
			Class: executor.Long,
		}, nil
	default:
		return executor.Command{}, invalid(ErrInvalidOperation, "%q (expected clone, pull or build)", op)
	}
}

// Run executes a repository operation. Only one runs at a time.
func (s *RepoSync) Run(ctx context.Context, operation string) OperationResponse {
	op := GitOperation(strings.ToLower(strings.TrimSpace(operation)))
	logger := s.log.WithFields(logrus.Fields{
		"operation":  op,
		"request_id": utils.RequestIDFromContext(ctx),
	})

	cmd, err := s.Command(op)
	if err != nil {
		logger.WithError(err).Info("Rejected git operation")
		resp := rejected(operation, "", nil, err)
		countOperation(string(models.OperationKindGit), "invalid", resp)
		return resp
	}
	cmd.Dir = s.workingDir

	select {
	case s.busy <- struct{}{}:
	case <-ctx.Done():
		resp := report(string(op), "", nil, cmd, executor.Result{Error: ctx.Err().Error()}, "")
		countOperation(string(models.OperationKindGit), string(op), resp)
		return resp
	}

	logger.WithField("command", cmd.String()).Info("Executing git operation")
	result := s.runner.Run(ctx, cmd)
	<-s.busy

	resp := report(string(op), "", nil, cmd, result, "git "+string(op)+" completed")
	countOperation(string(models.OperationKindGit), string(op), resp)

	if resp.Success {
		logger.WithField("duration_ms", resp.DurationMs).Info("Git operation completed")
	} else {
		logger.WithField("error", resp.Error).Error("Git operation failed")
	}

	record(ctx, s.history, s.log, models.OperationKindGit, resp)
	return resp
}
