package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afro-network/ceo-agent/internal/models"
)

type scriptedChecker struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (s *scriptedChecker) Health(context.Context) (*models.HealthResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) == 0 {
		return &models.HealthResponse{Status: "healthy"}, nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	if err != nil {
		return nil, err
	}
	return &models.HealthResponse{Status: "healthy"}, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestClampInterval(t *testing.T) {
	assert.Equal(t, DefaultProbeInterval, ClampInterval(0))
	assert.Equal(t, MinProbeInterval, ClampInterval(time.Second))
	assert.Equal(t, 10*time.Second, ClampInterval(10*time.Second))
	assert.Equal(t, MaxProbeInterval, ClampInterval(time.Minute))
}

func TestProbe_StartsChecking(t *testing.T) {
	p := NewProbe(&scriptedChecker{}, ProbeConfig{Logger: quietLogger()})

	assert.Equal(t, StateChecking, p.State())
	assert.ErrorIs(t, p.Require(), ErrBackendUnreachable)
	assert.Equal(t, DefaultProbeInterval, p.Interval())
}

func TestProbe_Transitions(t *testing.T) {
	refused := errors.New("dial tcp 127.0.0.1:3000: connection refused")
	checker := &scriptedChecker{errs: []error{nil, refused, nil}}

	type change struct{ from, to State }
	var changes []change
	p := NewProbe(checker, ProbeConfig{
		Logger: quietLogger(),
		OnChange: func(from, to State, _ error) {
			changes = append(changes, change{from, to})
		},
	})
	ctx := context.Background()

	assert.Equal(t, StateConnected, p.Check(ctx))
	require.NoError(t, p.Require())

	assert.Equal(t, StateDisconnected, p.Check(ctx))
	err := p.Require()
	assert.ErrorIs(t, err, ErrBackendUnreachable)
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, StateConnected, p.Check(ctx))
	assert.Equal(t, StateConnected, p.Check(ctx))

	assert.Equal(t, []change{
		{StateChecking, StateConnected},
		{StateConnected, StateDisconnected},
		{StateDisconnected, StateConnected},
	}, changes)
}

func TestProbe_BackoffDoubles(t *testing.T) {
	down := errors.New("down")
	checker := &scriptedChecker{errs: []error{down, down, down, down, down, nil}}
	p := NewProbe(checker, ProbeConfig{
		Interval:   5 * time.Second,
		MaxBackoff: 30 * time.Second,
		Logger:     quietLogger(),
	})
	ctx := context.Background()

	want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 30 * time.Second, 30 * time.Second}
	for _, w := range want {
		p.Check(ctx)
		assert.Equal(t, w, p.nextDelay())
	}

	p.Check(ctx)
	assert.Equal(t, 5*time.Second, p.nextDelay())
}

func TestProbe_MaxBackoffNeverBelowInterval(t *testing.T) {
	p := NewProbe(&scriptedChecker{}, ProbeConfig{Interval: 15 * time.Second, MaxBackoff: time.Second})
	assert.Equal(t, 15*time.Second, p.maxBackoff)
}

func TestProbe_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	connected := make(chan struct{})

	p := NewProbe(&scriptedChecker{}, ProbeConfig{
		Logger: quietLogger(),
		OnChange: func(_, to State, _ error) {
			if to == StateConnected {
				close(connected)
			}
		},
	})

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("first check did not run immediately")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, StateConnected, p.State())
}

func TestProbe_WithAPIClient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy"})
	})

	p := NewProbe(client, ProbeConfig{Logger: quietLogger()})
	assert.Equal(t, StateConnected, p.Check(context.Background()))
}
