package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/models"
)

// State is the backend reachability as seen by a Probe
type State string

// Probe states
const (
	StateChecking     State = "checking"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

// Probe interval bounds
const (
	DefaultProbeInterval   = 7 * time.Second
	MinProbeInterval       = 5 * time.Second
	MaxProbeInterval       = 15 * time.Second
	DefaultProbeMaxBackoff = time.Minute
	DefaultProbeTimeout    = 5 * time.Second
)

// HealthChecker is the part of APIClient the probe needs
type HealthChecker interface {
	Health(ctx context.Context) (*models.HealthResponse, error)
}

// ProbeConfig configures a Probe
type ProbeConfig struct {
	// Interval between checks while connected, clamped to 5s..15s
	Interval time.Duration
	// MaxBackoff caps the doubled wait after consecutive failures
	MaxBackoff time.Duration
	// Timeout bounds a single health call
	Timeout time.Duration
	// OnChange is called on every state transition, outside the probe lock
	OnChange func(from, to State, err error)
	Logger   *logrus.Logger
}

// Probe polls the backend health endpoint and tracks reachability
type Probe struct {
	checker    HealthChecker
	interval   time.Duration
	maxBackoff time.Duration
	timeout    time.Duration
	onChange   func(from, to State, err error)
	logger     *logrus.Logger

	mu       sync.RWMutex
	state    State
	lastErr  error
	failures int
}

// NewProbe creates a probe in the checking state
func NewProbe(checker HealthChecker, cfg ProbeConfig) *Probe {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultProbeMaxBackoff
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	interval := ClampInterval(cfg.Interval)
	if maxBackoff < interval {
		maxBackoff = interval
	}

	return &Probe{
		checker:    checker,
		interval:   interval,
		maxBackoff: maxBackoff,
		timeout:    timeout,
		onChange:   cfg.OnChange,
		logger:     logger,
		state:      StateChecking,
	}
}

// ClampInterval applies the default and the 5s..15s bounds
func ClampInterval(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultProbeInterval
	case d < MinProbeInterval:
		return MinProbeInterval
	case d > MaxProbeInterval:
		return MaxProbeInterval
	default:
		return d
	}
}

// Interval returns the effective polling interval
func (p *Probe) Interval() time.Duration {
	return p.interval
}

// State returns the current reachability
func (p *Probe) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Require returns ErrBackendUnreachable unless the last check succeeded
func (p *Probe) Require() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == StateConnected {
		return nil
	}
	if p.lastErr != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnreachable, p.lastErr)
	}
	return ErrBackendUnreachable
}

// Check performs one health call and updates the state
func (p *Probe) Check(ctx context.Context) State {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	_, err := p.checker.Health(checkCtx)
	cancel()

	next := StateConnected
	if err != nil {
		next = StateDisconnected
	}

	p.mu.Lock()
	prev := p.state
	p.state = next
	p.lastErr = err
	if err != nil {
		p.failures++
	} else {
		p.failures = 0
	}
	p.mu.Unlock()

	if prev != next {
		entry := p.logger.WithFields(logrus.Fields{"from": prev, "to": next})
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Debug("Backend reachability changed")
		if p.onChange != nil {
			p.onChange(prev, next, err)
		}
	}
	return next
}

// nextDelay is the wait before the next check: the interval while healthy,
// doubled per consecutive failure up to maxBackoff.
func (p *Probe) nextDelay() time.Duration {
	p.mu.RLock()
	failures := p.failures
	p.mu.RUnlock()

	delay := p.interval
	for i := 1; i < failures; i++ {
		delay *= 2
		if delay >= p.maxBackoff {
			return p.maxBackoff
		}
	}
	return delay
}

// Run checks immediately and then on the interval until ctx is cancelled
func (p *Probe) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		p.Check(ctx)
		if ctx.Err() != nil {
			return
		}
		timer.Reset(p.nextDelay())
	}
}
