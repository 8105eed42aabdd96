package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/executor"
	"github.com/afro-network/ceo-agent/internal/models"
	"github.com/afro-network/ceo-agent/internal/stack"
	"github.com/afro-network/ceo-agent/internal/utils"
)

// Status stream interval bounds
const (
	DefaultStreamInterval = 5 * time.Second
	MinStreamInterval     = 2 * time.Second
	MaxStreamInterval     = 60 * time.Second
)

const defaultOperationLimit = 20

// StackController handles stack status, lifecycle and command routes
type StackController struct {
	dispatcher *stack.Dispatcher
	repo       *stack.RepoSync
	reconciler *stack.Reconciler
	runner     executor.Runner
	allow      *executor.AllowList
	workingDir string
	history    OperationHistory
	logger     *logrus.Logger
}

// StackControllerConfig holds the StackController collaborators
type StackControllerConfig struct {
	Dispatcher *stack.Dispatcher
	RepoSync   *stack.RepoSync
	Reconciler *stack.Reconciler
	Runner     executor.Runner
	AllowList  *executor.AllowList
	WorkingDir string
	History    OperationHistory
	Logger     *logrus.Logger
}

// NewStackController creates a new stack controller
func NewStackController(cfg StackControllerConfig) *StackController {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StackController{
		dispatcher: cfg.Dispatcher,
		repo:       cfg.RepoSync,
		reconciler: cfg.Reconciler,
		runner:     cfg.Runner,
		allow:      cfg.AllowList,
		workingDir: cfg.WorkingDir,
		history:    cfg.History,
		logger:     logger,
	}
}

// RegisterRoutes registers the stack routes. Mutating routes run behind operator.
func (ctrl *StackController) RegisterRoutes(router *gin.RouterGroup, operator gin.HandlerFunc) {
	router.GET("/modes", ctrl.Modes)
	router.GET("/stack-status", ctrl.Status)
	router.GET("/stack-status/stream", ctrl.Stream)
	router.GET("/operations", ctrl.Operations)

	router.POST("/stack-operation", operator, ctrl.Operate)
	router.POST("/git-operation", operator, ctrl.GitOperation)
	router.POST("/docker-execute", operator, ctrl.Execute)
}

// Modes godoc
// @Summary List operation modes
// @Description Returns the deployment profiles and the set of known services.
// @Tags Stack
// @Produce json
// @Success 200 {object} models.ModesResponse
// @Router /modes [get]
func (ctrl *StackController) Modes(c *gin.Context) {
	modes := ctrl.dispatcher.Registry().Modes()
	resp := models.ModesResponse{
		Modes:    make([]models.ModeResponse, 0, len(modes)),
		Services: stack.KnownServices(),
	}
	for _, m := range modes {
		resp.Modes = append(resp.Modes, models.ModeResponse{
			ID:          m.ID,
			Name:        m.Name,
			Description: m.Description,
			Services:    m.Services,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Status godoc
// @Summary Get stack status
// @Description Derives the running state of each service group from the container runtime.
// @Description A failed listing reports every group false with connected false.
// @Tags Stack
// @Produce json
// @Param detail query bool false "Include the parsed containers"
// @Success 200 {object} stack.StatusReport "Containers and checked_at only with detail=true"
// @Router /stack-status [get]
func (ctrl *StackController) Status(c *gin.Context) {
	var req models.StackStatusRequest
	if !utils.BindQuery(c, &req) {
		return
	}

	if req.Detail {
		c.JSON(http.StatusOK, ctrl.reconciler.Detailed(c.Request.Context()))
		return
	}
	c.JSON(http.StatusOK, ctrl.reconciler.Status(c.Request.Context()))
}

// Stream godoc
// @Summary Stream stack status
// @Description Pushes the stack status as server-sent events until the client disconnects.
// @Tags Stack
// @Produce text/event-stream
// @Param interval query string false "Push interval, e.g. 5s or 10 (seconds). Bounded to 2s..60s"
// @Success 200 {object} stack.StackStatus
// @Router /stack-status/stream [get]
func (ctrl *StackController) Stream(c *gin.Context) {
	var req models.StreamRequest
	if !utils.BindQuery(c, &req) {
		return
	}
	interval, err := parseInterval(req.Interval)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := ctrl.logger.WithFields(logrus.Fields{
		"interval":   interval.String(),
		"request_id": c.GetString("request_id"),
	})
	logger.Debug("Status stream opened")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for id := 1; ; id++ {
		status := ctrl.reconciler.Status(ctx)
		if ctx.Err() != nil {
			break
		}
		if err := sse.Encode(c.Writer, sse.Event{
			Id:    strconv.Itoa(id),
			Event: "status",
			Data:  status,
		}); err != nil {
			logger.WithError(err).Debug("Failed to write status event")
			return
		}
		c.Writer.Flush()

		select {
		case <-ctx.Done():
			logger.Debug("Status stream closed")
			return
		case <-ticker.C:
		}
	}
	logger.Debug("Status stream closed")
}

// parseInterval accepts a Go duration or a number of seconds
func parseInterval(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultStreamInterval, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		secs, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return 0, errors.New("interval must be a duration such as 5s or a number of seconds")
		}
		d = time.Duration(secs) * time.Second
	}

	switch {
	case d < MinStreamInterval:
		return MinStreamInterval, nil
	case d > MaxStreamInterval:
		return MaxStreamInterval, nil
	}
	return d, nil
}

// Operate godoc
// @Summary Run a stack operation
// @Description Starts, stops or restarts a mode or a subset of its services.
// @Description Validation failures return 400 with stage "validating" and never run a command.
// @Description Command failures return 200 with success false and stage "executing".
// @Tags Stack
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body stack.OperationRequest true "Operation"
// @Success 200 {object} stack.OperationResponse
// @Failure 400 {object} stack.OperationResponse
// @Failure 401 {object} utils.Response
// @Router /stack-operation [post]
func (ctrl *StackController) Operate(c *gin.Context) {
	var req stack.OperationRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	resp := ctrl.dispatcher.Dispatch(c.Request.Context(), req)
	c.JSON(statusFor(resp.Stage), resp)
}

// GitOperation godoc
// @Summary Run a repository operation
// @Description Runs clone, pull or build in the stack working directory.
// @Tags Stack
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GitOperationRequest true "Operation"
// @Success 200 {object} stack.OperationResponse
// @Failure 400 {object} stack.OperationResponse
// @Failure 401 {object} utils.Response
// @Router /git-operation [post]
func (ctrl *StackController) GitOperation(c *gin.Context) {
	var req models.GitOperationRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	resp := ctrl.repo.Run(c.Request.Context(), req.Operation)
	c.JSON(statusFor(resp.Stage), resp)
}

// Execute godoc
// @Summary Run an allow-listed command
// @Description Runs a raw docker, docker-compose or git command. The command must start with an
// @Description allowed prefix on whole words, may not contain shell metacharacters and may only
// @Description use the options listed for that prefix.
// @Tags Stack
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.DockerExecuteRequest true "Command"
// @Success 200 {object} models.DockerExecuteResponse
// @Failure 400 {object} models.DockerExecuteResponse
// @Failure 401 {object} utils.Response
// @Router /docker-execute [post]
func (ctrl *StackController) Execute(c *gin.Context) {
	var req models.DockerExecuteRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	logger := ctrl.logger.WithFields(logrus.Fields{
		"command":    req.Command,
		"request_id": c.GetString("request_id"),
	})

	cmd, result, err := executor.RunString(c.Request.Context(), ctrl.runner, ctrl.allow, req.Command, ctrl.workingDir)
	if err != nil {
		stage := stack.StageOf(err)
		logger.WithError(err).Warn("Rejected raw command")
		c.JSON(statusFor(stage), models.DockerExecuteResponse{
			Success: false,
			Stage:   string(stage),
			Message: executor.ErrCommandNotPermitted.Error(),
			Command: req.Command,
			Logs:    []string{},
			Error:   err.Error(),
		})
		return
	}
	logger.WithField("class", cmd.Class.String()).Info("Executed raw command")

	resp := models.DockerExecuteResponse{
		Success:    result.Success,
		Stage:      string(stack.StageCompleted),
		Message:    "command completed",
		Command:    cmd.String(),
		Logs:       result.Lines(),
		Output:     result.Output,
		Error:      result.Error,
		ExitCode:   result.ExitCode,
		Truncated:  result.Truncated,
		DurationMs: result.DurationMs,
		Warnings:   result.Warnings,
	}
	if !result.Success {
		resp.Stage = string(stack.StageExecuting)
		resp.Message = "command failed: " + result.Error
		logger.WithField("error", result.Error).Error("Raw command failed")
	}
	c.JSON(http.StatusOK, resp)
}

// Operations godoc
// @Summary List operation history
// @Description Returns executed stack and repository operations, newest first.
// @Tags Stack
// @Produce json
// @Param limit query int false "Maximum entries (1-100)" default(20)
// @Param kind query string false "stack or git"
// @Success 200 {object} models.OperationListResponse
// @Failure 400 {object} utils.Response
// @Failure 503 {object} utils.Response
// @Router /operations [get]
func (ctrl *StackController) Operations(c *gin.Context) {
	if ctrl.history == nil {
		utils.ServiceUnavailable(c, "Operation history is not available")
		return
	}

	var req models.OperationListRequest
	if !utils.BindQuery(c, &req) {
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultOperationLimit
	}

	ops, err := ctrl.history.List(c.Request.Context(), models.OperationKind(req.Kind), req.Limit)
	if err != nil {
		ctrl.logger.WithError(err).Error("Failed to list operations")
		utils.InternalServerError(c, "Failed to list operations")
		return
	}
	c.JSON(http.StatusOK, models.OperationListResponse{Operations: ops, Count: len(ops)})
}

// statusFor maps a response stage onto an HTTP status. Only validation
// failures are client errors, command failures are reported in the body.
func statusFor(stage stack.Stage) int {
	if stage == stack.StageValidating {
		return http.StatusBadRequest
	}
	return http.StatusOK
}
