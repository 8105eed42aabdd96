package stack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/afro-network/ceo-agent/internal/executor"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	results []listResult
	calls   int
}

type listResult struct {
	containers []Container
	err        error
}

func (f *fakeLister) ListContainers(ctx context.Context) ([]Container, error) {
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i].containers, f.results[i].err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestParseContainerList(t *testing.T) {
	output := "NAMES\tSTATUS\n" +
		"project_afro-validator_1\tUp 2 hours\n" +
		"project_afro-web_1\tExited (1) 3 minutes ago\n" +
		"\n" +
		"afro-ceo   Up 5 seconds (healthy)\r\n"

	containers := ParseContainerList(output)
	require.Len(t, containers, 3)

	assert.Equal(t, Container{Name: "project_afro-validator_1", Status: "Up 2 hours", Up: true}, containers[0])
	assert.Equal(t, Container{Name: "project_afro-web_1", Status: "Exited (1) 3 minutes ago", Up: false}, containers[1])
	assert.Equal(t, Container{Name: "afro-ceo", Status: "Up 5 seconds (healthy)", Up: true}, containers[2])
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		containers []Container
		want       StackStatus
	}{
		{
			name: "mainnet up, website exited",
			containers: ParseContainerList("project_afro-validator_1\tUp 2 hours\n" +
				"project_afro-web_1\tExited (1) 3 minutes ago"),
			want: StackStatus{Mainnet: true, Connected: true},
		},
		{
			name:       "no containers",
			containers: nil,
			want:       StackStatus{Connected: true},
		},
		{
			name: "testnet validator does not count as mainnet",
			containers: []Container{
				{Name: "afro-testnet-validator", Up: true},
			},
			want: StackStatus{Testnet: true, Connected: true},
		},
		{
			name: "either explorer marks explorer up",
			containers: []Container{
				{Name: "afro-testnet-explorer", Up: true},
				{Name: "afro-explorer", Up: false},
			},
			want: StackStatus{Explorer: true, Connected: true},
		},
		{
			name: "any matching container up wins",
			containers: []Container{
				{Name: "afro-web-old", Up: false},
				{Name: "afro-web", Up: true},
			},
			want: StackStatus{Website: true, Connected: true},
		},
		{
			name: "everything up",
			containers: []Container{
				{Name: "afro-validator", Up: true},
				{Name: "afro-testnet-validator", Up: true},
				{Name: "afro-explorer", Up: true},
				{Name: "afro-web", Up: true},
				{Name: "afro-ceo", Up: true},
			},
			want: StackStatus{Mainnet: true, Testnet: true, Explorer: true, Website: true, CEO: true, Connected: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.containers))
		})
	}
}

func TestCLILister(t *testing.T) {
	rec := &executor.Recorder{
		RunFunc: func(ctx context.Context, cmd executor.Command) executor.Result {
			return executor.Succeeded("NAMES\tSTATUS\nafro-validator\tUp 1 minute\n")
		},
	}
	lister := NewCLILister(rec, "afro")

	containers, err := lister.ListContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, containers, 1)

	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "docker", calls[0].Name)
	assert.Equal(t, []string{"ps", "--format", "{{.Names}}\t{{.Status}}", "--filter", "name=afro"}, calls[0].Args)
}

func TestReconcilerListingFailure(t *testing.T) {
	rec := &executor.Recorder{
		RunFunc: func(ctx context.Context, cmd executor.Command) executor.Result {
			return executor.Failed(1, "Cannot connect to the Docker daemon")
		},
	}
	r := NewReconciler(NewCLILister(rec, "afro"), WithReconcilerLogger(quietLogger()))

	status := r.Status(context.Background())
	assert.Equal(t, StackStatus{}, status)
	assert.False(t, status.Connected)

	report := r.Detailed(context.Background())
	assert.Contains(t, report.Error, "Cannot connect")
	assert.NotNil(t, report.Containers)
}

func TestReconcilerTimeout(t *testing.T) {
	rec := &executor.Recorder{
		RunFunc: func(ctx context.Context, cmd executor.Command) executor.Result {
			return executor.TimedOutResult()
		},
	}
	r := NewReconciler(NewCLILister(rec, "afro"), WithReconcilerLogger(quietLogger()))

	assert.Equal(t, StackStatus{}, r.Status(context.Background()))
}

func TestReconcilerRetry(t *testing.T) {
	lister := &fakeLister{results: []listResult{
		{err: errors.New("daemon busy")},
		{containers: []Container{{Name: "afro-web", Up: true}}},
	}}
	r := NewReconciler(lister,
		WithRetryPolicy(RetryPolicy{Attempts: 3, Backoff: time.Millisecond}),
		WithReconcilerLogger(quietLogger()),
	)

	status := r.Status(context.Background())
	assert.True(t, status.Connected)
	assert.True(t, status.Website)
}

func TestReconcilerRetryGivesUp(t *testing.T) {
	lister := &fakeLister{results: []listResult{{err: errors.New("down")}}}
	r := NewReconciler(lister,
		WithRetryPolicy(RetryPolicy{Attempts: 2, Backoff: time.Millisecond}),
		WithReconcilerLogger(quietLogger()),
	)

	report := r.Detailed(context.Background())
	assert.False(t, report.Connected)
	assert.Equal(t, "down", report.Error)
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{Attempts: 4, Backoff: 100 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.delay(1))
	assert.Equal(t, 200*time.Millisecond, p.delay(2))
	assert.Equal(t, 400*time.Millisecond, p.delay(3))
	assert.Equal(t, 1, RetryPolicy{}.attempts())
	assert.Zero(t, RetryPolicy{Attempts: 3}.delay(2))

	// large retry counts stay positive and capped
	for _, retry := range []int{10, 40, 64, 100, 1000} {
		assert.Equal(t, MaxRetryBackoff, p.delay(retry), retry)
	}
	huge := RetryPolicy{Attempts: 2, Backoff: time.Duration(1 << 62)}
	assert.Equal(t, MaxRetryBackoff, huge.delay(1))
	assert.Equal(t, MaxRetryBackoff, huge.delay(3))
}

func TestIsUp(t *testing.T) {
	assert.True(t, IsUp("Up 2 hours"))
	assert.True(t, IsUp("Up About a minute (healthy)"))
	assert.True(t, IsUp("running"))
	assert.False(t, IsUp("Exited (0) 2 days ago"))
	assert.False(t, IsUp("Created"))
	assert.False(t, IsUp("Restarting (1) 5 seconds ago"))
}
