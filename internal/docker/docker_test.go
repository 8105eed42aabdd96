package docker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/system"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afro-network/ceo-agent/internal/stack"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewManager_Options(t *testing.T) {
	_, err := NewManager(WithHost("localhost:2375"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHost)

	_, err = NewManager(WithTLSConfig(true, "cert.pem", "", "ca.pem"))
	assert.ErrorIs(t, err, ErrMissingTLSConfig)

	m, err := NewManager(WithHost("unix:///var/run/docker.sock"), WithAPIVersion("v1.45"), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, "unix:///var/run/docker.sock", m.config.Host)
	assert.Equal(t, "1.45", m.config.APIVersion)
}

func TestManager_Close(t *testing.T) {
	api := new(MockAPI)
	api.On("Close").Return(nil).Once()

	m := NewManagerWithAPI(api, quietLogger())
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.API()
	assert.ErrorIs(t, err, ErrClientClosed)
	api.AssertExpectations(t)
}

func TestAPILister_ListContainers(t *testing.T) {
	api := new(MockAPI)
	api.On("ContainerList", mock.Anything, mock.MatchedBy(func(opts container.ListOptions) bool {
		names := opts.Filters.Get("name")
		return !opts.All && len(names) == 1 && names[0] == "afro"
	})).Return([]container.Summary{
		{Names: []string{"/afro-web"}, Status: "Exited (0) 2 hours ago", State: "exited"},
		{Names: []string{"/project_afro-validator_1"}, Status: "Up 3 hours", State: "running"},
	}, nil)

	lister := NewAPILister(NewManagerWithAPI(api, quietLogger()), "afro")
	containers, err := lister.ListContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, "afro-web", containers[0].Name)
	assert.False(t, containers[0].Up)
	assert.Equal(t, "project_afro-validator_1", containers[1].Name)
	assert.True(t, containers[1].Up)

	status := stack.Evaluate(containers)
	assert.True(t, status.Mainnet)
	assert.False(t, status.Website)
}

func TestAPILister_Error(t *testing.T) {
	api := new(MockAPI)
	api.On("ContainerList", mock.Anything, mock.Anything).Return(nil, errors.New("daemon gone"))

	lister := NewAPILister(NewManagerWithAPI(api, quietLogger()), "afro")
	_, err := lister.ListContainers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon gone")

	report := stack.NewReconciler(lister, stack.WithReconcilerLogger(quietLogger())).Detailed(context.Background())
	assert.False(t, report.Connected)
}

func TestFollowLogs_Multiplexed(t *testing.T) {
	var buf bytes.Buffer
	_, err := stdcopy.NewStdWriter(&buf, stdcopy.Stdout).Write([]byte("block 1\nblock 2\n"))
	require.NoError(t, err)
	_, err = stdcopy.NewStdWriter(&buf, stdcopy.Stderr).Write([]byte("WARN peer dropped\n"))
	require.NoError(t, err)

	api := new(MockAPI)
	api.On("ContainerInspect", mock.Anything, "afro-validator").
		Return(container.InspectResponse{Config: &container.Config{Tty: false}}, nil)
	api.On("ContainerLogs", mock.Anything, "afro-validator", mock.MatchedBy(func(o container.LogsOptions) bool {
		return o.Follow && o.Tail == "50"
	})).Return(io.NopCloser(&buf), nil)

	m := NewManagerWithAPI(api, quietLogger())
	var got []LogLine
	err = m.FollowLogs(context.Background(), "afro-validator", 50, func(l LogLine) error {
		got = append(got, l)
		return nil
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []LogLine{
		{Stream: "stdout", Line: "block 1"},
		{Stream: "stdout", Line: "block 2"},
		{Stream: "stderr", Line: "WARN peer dropped"},
	}, got)
}

func TestFollowLogs_TTYStopsOnEmitError(t *testing.T) {
	api := new(MockAPI)
	api.On("ContainerInspect", mock.Anything, "afro-web").
		Return(container.InspectResponse{Config: &container.Config{Tty: true}}, nil)
	api.On("ContainerLogs", mock.Anything, "afro-web", mock.Anything).
		Return(io.NopCloser(bytes.NewBufferString("one\ntwo\nthree\n")), nil)

	stopErr := errors.New("socket closed")
	count := 0
	err := NewManagerWithAPI(api, quietLogger()).FollowLogs(context.Background(), "afro-web", 10, func(l LogLine) error {
		count++
		if count == 2 {
			return stopErr
		}
		return nil
	})
	assert.ErrorIs(t, err, stopErr)
	assert.Equal(t, 2, count)
}

func TestFollowLogs_InspectFailure(t *testing.T) {
	api := new(MockAPI)
	api.On("ContainerInspect", mock.Anything, "afro-ceo").
		Return(container.InspectResponse{}, errors.New("No such container"))

	err := NewManagerWithAPI(api, quietLogger()).FollowLogs(context.Background(), "afro-ceo", 10, func(LogLine) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to inspect container afro-ceo")
	api.AssertNotCalled(t, "ContainerLogs", mock.Anything, mock.Anything, mock.Anything)
}

func TestSystem(t *testing.T) {
	api := new(MockAPI)
	api.On("Ping", mock.Anything).Return(types.Ping{APIVersion: "1.47"}, nil)
	api.On("Info", mock.Anything).Return(system.Info{
		ServerVersion:     "28.0.4",
		OperatingSystem:   "Ubuntu 24.04",
		Containers:        7,
		ContainersRunning: 5,
	}, nil)

	resp := NewManagerWithAPI(api, quietLogger()).System(context.Background())
	assert.True(t, resp.Reachable)
	assert.Equal(t, "1.47", resp.APIVersion)
	assert.Equal(t, "28.0.4", resp.ServerVersion)
	assert.Equal(t, 5, resp.Running)
}

func TestSystem_Unreachable(t *testing.T) {
	api := new(MockAPI)
	api.On("Ping", mock.Anything).Return(types.Ping{}, errors.New("connection refused"))

	resp := NewManagerWithAPI(api, quietLogger()).System(context.Background())
	assert.False(t, resp.Reachable)
	assert.Contains(t, resp.Error, "connection refused")
	api.AssertNotCalled(t, "Info", mock.Anything)
}
