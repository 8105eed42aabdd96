package stack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/afro-network/ceo-agent/internal/executor"
	"github.com/sirupsen/logrus"
)

// StackStatus is the derived running state of each service group
type StackStatus struct {
	Mainnet   bool `json:"mainnet"`
	Testnet   bool `json:"testnet"`
	Explorer  bool `json:"explorer"`
	Website   bool `json:"website"`
	CEO       bool `json:"ceo"`
	Connected bool `json:"connected"`
}

// Container is one line of the container listing
type Container struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Up     bool   `json:"up"`
}

// StatusReport is a status together with the containers it was derived from
type StatusReport struct {
	StackStatus
	Containers []Container `json:"containers"`
	Error      string      `json:"error,omitempty"`
	CheckedAt  time.Time   `json:"checked_at"`
}

// group maps a logical service group onto container name substrings.
// Matching is by substring so compose suffixes like project_afro-web_1 still match.
type group struct {
	name     string
	patterns []string
	set      func(*StackStatus)
}

var groups = []group{
	{"mainnet", []string{"afro-validator"}, func(s *StackStatus) { s.Mainnet = true }},
	{"testnet", []string{"afro-testnet-validator"}, func(s *StackStatus) { s.Testnet = true }},
	{"explorer", []string{"afro-explorer", "afro-testnet-explorer"}, func(s *StackStatus) { s.Explorer = true }},
	{"website", []string{"afro-web"}, func(s *StackStatus) { s.Website = true }},
	{"ceo", []string{"afro-ceo"}, func(s *StackStatus) { s.CEO = true }},
}

// Evaluate derives the group flags from a container listing. A group is up
// when any matching container is up.
func Evaluate(containers []Container) StackStatus {
	status := StackStatus{Connected: true}
	for _, g := range groups {
		for _, c := range containers {
			if c.Up && matchesAny(c.Name, g.patterns) {
				g.set(&status)
				break
			}
		}
	}
	return status
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// IsUp reports whether a docker ps status string describes a running container
func IsUp(status string) bool {
	status = strings.TrimSpace(status)
	return strings.HasPrefix(status, "Up") || strings.Contains(status, "Up ") || strings.EqualFold(status, "running")
}

// ParseContainerList parses `docker ps --format "{{.Names}}\t{{.Status}}"` output
func ParseContainerList(output string) []Container {
	var containers []Container
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var name, status string
		if i := strings.IndexByte(line, '\t'); i >= 0 {
			name, status = line[:i], line[i+1:]
		} else {
			fields := strings.Fields(line)
			name = fields[0]
			status = strings.Join(fields[1:], " ")
		}
		name = strings.TrimSpace(name)
		status = strings.TrimSpace(status)

		if strings.EqualFold(name, "NAMES") {
			continue
		}
		containers = append(containers, Container{Name: name, Status: status, Up: IsUp(status)})
	}
	return containers
}

// ContainerLister lists the deployment's containers
type ContainerLister interface {
	ListContainers(ctx context.Context) ([]Container, error)
}

// CLILister lists containers with the docker CLI through the executor
type CLILister struct {
	runner executor.Runner
	prefix string
}

// NewCLILister creates a lister filtering on the project prefix
func NewCLILister(runner executor.Runner, prefix string) *CLILister {
	return &CLILister{runner: runner, prefix: prefix}
}

// Command returns the listing command
func (l *CLILister) Command() executor.Command {
	return executor.Command{
		Name:  "docker",
		Args:  []string{"ps", "--format", "{{.Names}}\t{{.Status}}", "--filter", "name=" + l.prefix},
		Class: executor.Default,
	}
}

// ListContainers runs docker ps and parses its output
func (l *CLILister) ListContainers(ctx context.Context) ([]Container, error) {
	result := l.runner.Run(ctx, l.Command())
	if !result.Success {
		return nil, fmt.Errorf("failed to list containers: %s", result.Error)
	}
	return ParseContainerList(result.Output), nil
}

// RetryPolicy bounds retries of a failed container listing
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// MaxRetryBackoff caps the wait between listing attempts
const MaxRetryBackoff = 30 * time.Second

// NoRetry performs a single attempt
var NoRetry = RetryPolicy{Attempts: 1}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// delay returns the wait before the given retry, doubling each time up to
// MaxRetryBackoff
func (p RetryPolicy) delay(retry int) time.Duration {
	if p.Backoff <= 0 {
		return 0
	}
	wait := min(p.Backoff, MaxRetryBackoff)
	for i := 1; i < retry && wait < MaxRetryBackoff; i++ {
		wait *= 2
	}
	return min(wait, MaxRetryBackoff)
}

// ReconcilerOption configures a Reconciler
type ReconcilerOption func(*Reconciler)

// WithRetryPolicy sets the retry policy for listing failures
func WithRetryPolicy(p RetryPolicy) ReconcilerOption {
	return func(r *Reconciler) {
		r.retry = p
	}
}

// WithReconcilerLogger sets the logger
func WithReconcilerLogger(logger *logrus.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger != nil {
			r.log = logger
		}
	}
}

// Reconciler derives StackStatus from the live container runtime
type Reconciler struct {
	lister ContainerLister
	retry  RetryPolicy
	log    *logrus.Logger
	now    func() time.Time
}

// NewReconciler creates a reconciler
func NewReconciler(lister ContainerLister, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		lister: lister,
		retry:  NoRetry,
		log:    logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status returns the current status. A failed listing yields an all-false
// status with Connected false.
func (r *Reconciler) Status(ctx context.Context) StackStatus {
	return r.Detailed(ctx).StackStatus
}

// Detailed returns the status and the parsed containers
func (r *Reconciler) Detailed(ctx context.Context) StatusReport {
	containers, err := r.list(ctx)
	report := StatusReport{CheckedAt: r.now()}
	if err != nil {
		statusChecks.WithLabelValues("disconnected").Inc()
		report.Error = err.Error()
		report.Containers = []Container{}
		return report
	}

	statusChecks.WithLabelValues("connected").Inc()
	report.StackStatus = Evaluate(containers)
	report.Containers = containers
	if report.Containers == nil {
		report.Containers = []Container{}
	}
	return report
}

func (r *Reconciler) list(ctx context.Context) ([]Container, error) {
	var lastErr error
	for attempt := 1; attempt <= r.retry.attempts(); attempt++ {
		if attempt > 1 {
			wait := r.retry.delay(attempt - 1)
			r.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"wait":    wait.String(),
			}).Debug("Retrying container listing")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		containers, err := r.lister.ListContainers(ctx)
		if err == nil {
			return containers, nil
		}
		lastErr = err
		r.log.WithError(err).WithField("attempt", attempt).Warn("Container listing failed")
	}
	return nil, lastErr
}
