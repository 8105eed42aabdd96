// Package executor runs docker, docker-compose and git commands for the agent.
// A command never fails with a Go error: spawn failures, non-zero exits and
// timeouts are all reported through Result.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds ordinary commands
	DefaultTimeout = 30 * time.Second

	// LongTimeout bounds image builds and clones
	LongTimeout = 10 * time.Minute

	// DefaultMaxOutput caps the captured output of a single command
	DefaultMaxOutput = 1 << 20

	// ReasonTimeout is the Result.Error value for a command killed by its timeout
	ReasonTimeout = "timeout"

	waitDelay = 2 * time.Second
)

// Class selects the timeout applied to a command
type Class int

const (
	// Default is the class for status queries and start/stop/restart
	Default Class = iota
	// Long is the class for builds and clones
	Long
)

// String returns the class name used in logs and metrics
func (c Class) String() string {
	if c == Long {
		return "long"
	}
	return "default"
}

// Command is a single program invocation. Arguments are passed to the
// process as-is, no shell is involved.
type Command struct {
	Name      string
	Args      []string
	Dir       string
	Class     Class
	Timeout   time.Duration
	MaxOutput int
}

// String renders the command for logs and API responses
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t\n\"'\\") {
			arg = strconv.Quote(arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Result is the outcome of a command
type Result struct {
	Success    bool     `json:"success"`
	Output     string   `json:"output"`
	Error      string   `json:"error,omitempty"`
	ExitCode   *int     `json:"exitCode"`
	Truncated  bool     `json:"truncated"`
	DurationMs int64    `json:"durationMs"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Lines splits the output into non-empty lines
func (r Result) Lines() []string {
	raw := strings.Split(r.Output, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r ")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// TimedOut reports whether the command was killed by its timeout
func (r Result) TimedOut() bool {
	return !r.Success && r.Error == ReasonTimeout
}

// Runner runs a command and reports its result
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

// Option configures an Executor
type Option func(*Executor)

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithWorkingDir sets the directory commands run in when Command.Dir is empty
func WithWorkingDir(dir string) Option {
	return func(e *Executor) {
		e.workingDir = dir
	}
}

// WithTimeout sets the timeout of a class
func WithTimeout(class Class, timeout time.Duration) Option {
	return func(e *Executor) {
		if timeout > 0 {
			e.timeouts[class] = timeout
		}
	}
}

// WithMaxOutput sets the output cap in bytes
func WithMaxOutput(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxOutput = n
		}
	}
}

// Executor spawns one child process per command
type Executor struct {
	workingDir string
	timeouts   map[Class]time.Duration
	maxOutput  int
	log        *logrus.Logger
}

// New creates an executor
func New(opts ...Option) *Executor {
	e := &Executor{
		timeouts: map[Class]time.Duration{
			Default: DefaultTimeout,
			Long:    LongTimeout,
		},
		maxOutput: DefaultMaxOutput,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Timeout returns the timeout applied to a class
func (e *Executor) Timeout(class Class) time.Duration {
	if d, ok := e.timeouts[class]; ok {
		return d
	}
	return e.timeouts[Default]
}

// RunString checks a raw command line against the allow-list and hands it to
// runner in dir. A rejected line returns ErrCommandNotPermitted and runner is
// never called.
func RunString(ctx context.Context, runner Runner, allow *AllowList, line, dir string) (Command, Result, error) {
	if allow == nil {
		return Command{}, Result{}, ErrCommandNotPermitted
	}
	cmd, err := allow.Parse(line)
	if err != nil {
		return Command{}, Result{}, err
	}
	cmd.Dir = dir
	return cmd, runner.Run(ctx, cmd), nil
}

// Run executes the command and always returns a Result
func (e *Executor) Run(ctx context.Context, cmd Command) Result {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = e.Timeout(cmd.Class)
	}
	maxOutput := cmd.MaxOutput
	if maxOutput <= 0 {
		maxOutput = e.maxOutput
	}
	dir := cmd.Dir
	if dir == "" {
		dir = e.workingDir
	}

	logger := e.log.WithFields(logrus.Fields{
		"command": cmd.String(),
		"dir":     dir,
		"class":   cmd.Class.String(),
		"timeout": timeout.String(),
	})
	logger.Debug("Running command")

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	proc := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	proc.Dir = dir
	proc.WaitDelay = waitDelay

	stdout := newCapWriter(maxOutput)
	stderr := newCapWriter(maxOutput)
	proc.Stdout = stdout
	proc.Stderr = stderr

	start := time.Now()
	runErr := proc.Run()
	elapsed := time.Since(start)

	output, truncated := combine(stdout, stderr, maxOutput)
	result := Result{
		Output:     output,
		Truncated:  truncated,
		DurationMs: elapsed.Milliseconds(),
		Warnings:   warnings(stderr.String()),
	}

	for _, w := range result.Warnings {
		logger.WithField("warning", w).Warn("Command reported a warning")
	}

	switch {
	case runErr == nil:
		code := 0
		result.Success = true
		result.ExitCode = &code
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		result.Error = ReasonTimeout
	case ctx.Err() != nil:
		result.Error = ctx.Err().Error()
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code := exitErr.ExitCode()
			result.ExitCode = &code
			result.Error = strings.TrimSpace(stderr.String())
			if result.Error == "" {
				result.Error = runErr.Error()
			}
		} else {
			result.Error = runErr.Error()
		}
	}

	observe(cmd.Name, result, elapsed)

	if result.Success {
		logger.WithField("duration_ms", result.DurationMs).Debug("Command completed")
	} else {
		logger.WithFields(logrus.Fields{
			"error":       result.Error,
			"exit_code":   exitCodeField(result.ExitCode),
			"duration_ms": result.DurationMs,
		}).Error("Command failed")
	}

	return result
}

func exitCodeField(code *int) interface{} {
	if code == nil {
		return nil
	}
	return *code
}

// warnings picks the stderr lines that look like warnings
func warnings(stderr string) []string {
	var out []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && strings.Contains(strings.ToUpper(line), "WARN") {
			out = append(out, line)
		}
	}
	return out
}

// combine joins stdout and stderr, never exceeding max bytes
func combine(stdout, stderr *capWriter, max int) (string, bool) {
	var buf bytes.Buffer
	buf.Write(stdout.Bytes())
	if errOut := stderr.Bytes(); len(errOut) > 0 {
		if buf.Len() > 0 && !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteByte('\n')
		}
		buf.Write(errOut)
	}

	truncated := stdout.Truncated() || stderr.Truncated()
	out := buf.Bytes()
	if len(out) > max {
		out = out[:max]
		truncated = true
	}
	return string(out), truncated
}

// capWriter keeps the first limit bytes written to it and discards the rest.
// It never reports a short write so the child process is not disturbed.
type capWriter struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newCapWriter(limit int) *capWriter {
	return &capWriter{limit: limit}
}

func (w *capWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			w.truncated = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	w.buf.Write(p)
	return len(p), nil
}

func (w *capWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf.Bytes()...)
}

func (w *capWriter) String() string {
	return string(w.Bytes())
}

func (w *capWriter) Truncated() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.truncated
}
