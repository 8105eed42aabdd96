package stack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/afro-network/ceo-agent/internal/executor"
	"github.com/afro-network/ceo-agent/internal/models"
	"github.com/afro-network/ceo-agent/internal/utils"
	"github.com/sirupsen/logrus"
)

// Operation is a compose lifecycle action
type Operation string

const (
	OpStart   Operation = "start"
	OpStop    Operation = "stop"
	OpRestart Operation = "restart"
)

// Stage tells a caller where a request ended
type Stage string

const (
	// StageValidating means the request was rejected before any command ran
	StageValidating Stage = "validating"
	// StageExecuting means the command ran, or could not run, and failed
	StageExecuting Stage = "executing"
	// StageCompleted means the command succeeded
	StageCompleted Stage = "completed"
)

// OperationRequest asks for a start, stop or restart
type OperationRequest struct {
	Operation string   `json:"operation" example:"start"`
	Mode      string   `json:"mode" example:"testnet"`
	Services  []string `json:"services"`
}

// OperationResponse reports a dispatched operation
type OperationResponse struct {
	Success    bool     `json:"success"`
	Stage      Stage    `json:"stage"`
	Message    string   `json:"message"`
	Operation  string   `json:"operation"`
	Mode       string   `json:"mode,omitempty"`
	Services   []string `json:"services"`
	Command    string   `json:"command,omitempty"`
	Logs       []string `json:"logs"`
	Output     string   `json:"output"`
	Error      string   `json:"error,omitempty"`
	ExitCode   *int     `json:"exitCode"`
	Truncated  bool     `json:"truncated"`
	DurationMs int64    `json:"durationMs"`
}

// History stores executed operations
type History interface {
	Record(ctx context.Context, op *models.Operation) error
}

// BuildCommand maps an operation onto its docker-compose invocation.
// Stopping everything tears the deployment down with `down`, stopping
// named services keeps their containers with `stop`.
func BuildCommand(op Operation, services []ServiceID) executor.Command {
	var args []string
	switch op {
	case OpStart:
		args = append([]string{"up", "-d"}, services...)
	case OpStop:
		if len(services) == 0 {
			args = []string{"down"}
		} else {
			args = append([]string{"stop"}, services...)
		}
	case OpRestart:
		args = append([]string{"restart"}, services...)
	}
	return executor.Command{Name: "docker-compose", Args: args, Class: executor.Default}
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithWorkingDir sets the directory holding the compose file
func WithWorkingDir(dir string) DispatcherOption {
	return func(d *Dispatcher) {
		d.workingDir = dir
	}
}

// WithEnforceModeSubset controls whether services must belong to the mode
func WithEnforceModeSubset(enforce bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.enforceSubset = enforce
	}
}

// WithHistory records executed operations
func WithHistory(h History) DispatcherOption {
	return func(d *Dispatcher) {
		d.history = h
	}
}

// WithDispatcherLogger sets the logger
func WithDispatcherLogger(logger *logrus.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.log = logger
		}
	}
}

// Dispatcher validates operation requests, runs the matching compose
// command and reports the outcome. It never retries.
type Dispatcher struct {
	registry      *Registry
	runner        executor.Runner
	workingDir    string
	enforceSubset bool
	history       History
	locks         *keyedLocks
	log           *logrus.Logger
}

// NewDispatcher creates a dispatcher over an injected registry and runner
func NewDispatcher(registry *Registry, runner executor.Runner, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry:      registry,
		runner:        runner,
		enforceSubset: true,
		locks:         newKeyedLocks(),
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the mode registry
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

type validatedRequest struct {
	op       Operation
	mode     OperationMode
	services []ServiceID
}

// Validate checks a request without running anything
func (d *Dispatcher) Validate(req OperationRequest) error {
	_, err := d.validate(req)
	return err
}

func (d *Dispatcher) validate(req OperationRequest) (validatedRequest, error) {
	var v validatedRequest

	op := Operation(strings.ToLower(strings.TrimSpace(req.Operation)))
	switch op {
	case OpStart, OpStop, OpRestart:
		v.op = op
	default:
		return v, invalid(ErrInvalidOperation, "%q (expected start, stop or restart)", req.Operation)
	}

	modeID := strings.TrimSpace(req.Mode)
	if modeID == "" {
		return v, &ValidationError{Err: ErrModeNotFound, Detail: "mode is required"}
	}
	mode, err := d.registry.Resolve(modeID)
	if err != nil {
		return v, err
	}
	v.mode = mode

	seen := make(map[ServiceID]bool, len(req.Services))
	for _, raw := range req.Services {
		service, ok := NormalizeService(raw)
		if !ok {
			return v, invalid(ErrUnknownService, "%s", raw)
		}
		if seen[service] {
			continue
		}
		seen[service] = true

		if !mode.Includes(service) {
			if d.enforceSubset {
				return v, invalid(ErrServiceNotInMode, "%s is not part of %s", service, mode.ID)
			}
			d.log.WithFields(logrus.Fields{
				"service": service,
				"mode":    mode.ID,
			}).Warn("Service is not part of the selected mode")
		}
		v.services = append(v.services, service)
	}

	return v, nil
}

// Dispatch runs one operation. Validation failures return with
// StageValidating and never reach the runner.
func (d *Dispatcher) Dispatch(ctx context.Context, req OperationRequest) OperationResponse {
	logger := d.log.WithFields(logrus.Fields{
		"operation":  req.Operation,
		"mode":       req.Mode,
		"services":   req.Services,
		"request_id": utils.RequestIDFromContext(ctx),
	})

	v, err := d.validate(req)
	if err != nil {
		logger.WithError(err).Info("Rejected stack operation")
		resp := rejected(req.Operation, req.Mode, req.Services, err)
		countOperation(string(models.OperationKindStack), "invalid", resp)
		return resp
	}

	cmd := BuildCommand(v.op, v.services)
	cmd.Dir = d.workingDir

	keys := v.services
	if len(keys) == 0 {
		keys = KnownServices()
	}
	release, err := d.locks.acquire(ctx, keys)
	if err != nil {
		resp := report(string(v.op), v.mode.ID, v.services, cmd, executor.Result{Error: err.Error()}, v.op.describe(v.services))
		countOperation(string(models.OperationKindStack), string(v.op), resp)
		return resp
	}

	logger.WithField("command", cmd.String()).Info("Executing stack operation")
	result := d.runner.Run(ctx, cmd)
	release()

	resp := report(string(v.op), v.mode.ID, v.services, cmd, result, v.op.describe(v.services))
	countOperation(string(models.OperationKindStack), string(v.op), resp)

	if resp.Success {
		logger.WithField("duration_ms", resp.DurationMs).Info("Stack operation completed")
	} else {
		logger.WithField("error", resp.Error).Error("Stack operation failed")
	}

	record(ctx, d.history, d.log, models.OperationKindStack, resp)
	return resp
}

func (op Operation) describe(services []ServiceID) string {
	if len(services) == 0 {
		return fmt.Sprintf("stack %s completed for entire deployment", op)
	}
	return fmt.Sprintf("stack %s completed for %d service(s)", op, len(services))
}

// rejected builds the response of a request that failed validation
func rejected(operation, mode string, services []string, err error) OperationResponse {
	if services == nil {
		services = []string{}
	}
	return OperationResponse{
		Success:   false,
		Stage:     StageValidating,
		Message:   err.Error(),
		Operation: operation,
		Mode:      mode,
		Services:  services,
		Logs:      []string{},
		Error:     err.Error(),
	}
}

// report translates a command result into an OperationResponse
func report(operation, mode string, services []string, cmd executor.Command, result executor.Result, successMessage string) OperationResponse {
	if services == nil {
		services = []string{}
	}
	resp := OperationResponse{
		Success:    result.Success,
		Stage:      StageCompleted,
		Operation:  operation,
		Mode:       mode,
		Services:   services,
		Command:    cmd.String(),
		Logs:       result.Lines(),
		Output:     result.Output,
		Error:      result.Error,
		ExitCode:   result.ExitCode,
		Truncated:  result.Truncated,
		DurationMs: result.DurationMs,
	}
	if result.Success {
		resp.Message = successMessage
	} else {
		resp.Stage = StageExecuting
		resp.Message = "command failed: " + result.Error
	}
	return resp
}

// record stores an executed operation. A failed write is only logged.
func record(ctx context.Context, history History, log *logrus.Logger, kind models.OperationKind, resp OperationResponse) {
	if history == nil {
		return
	}

	op := &models.Operation{
		Kind:       kind,
		Operation:  resp.Operation,
		Mode:       resp.Mode,
		Services:   models.StringArray(resp.Services),
		Command:    resp.Command,
		Success:    resp.Success,
		Message:    resp.Message,
		Error:      resp.Error,
		ExitCode:   resp.ExitCode,
		Truncated:  resp.Truncated,
		DurationMs: resp.DurationMs,
		RequestID:  utils.RequestIDFromContext(ctx),
	}

	// written even when the client has gone away
	if err := history.Record(context.WithoutCancel(ctx), op); err != nil {
		log.WithError(err).WithField("operation", resp.Operation).Warn("Failed to record operation history")
	}
}

// StageOf returns the stage a dispatch error belongs to
func StageOf(err error) Stage {
	if err == nil {
		return StageCompleted
	}
	if IsValidation(err) || errors.Is(err, executor.ErrCommandNotPermitted) {
		return StageValidating
	}
	return StageExecuting
}
