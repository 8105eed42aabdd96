package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afro-network/ceo-agent/internal/compose"
	"github.com/afro-network/ceo-agent/internal/config"
	"github.com/afro-network/ceo-agent/internal/models"
)

func TestComposeServices(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/compose/services", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ComposeServicesResponse
	decode(t, w, &resp)
	assert.Equal(t, "afro", resp.Project)
	require.Len(t, resp.Services, 1)
	assert.True(t, resp.Services[0].Known)
}

func TestComposeServices_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"missing file", fmt.Errorf("%w in /srv/afro-network", compose.ErrComposeFileNotFound), http.StatusNotFound},
		{"invalid file", errBoom, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, func(_ *config.Config, sc *ServerConfig) {
				sc.Compose = fakeCompose{err: tt.err}
			})

			w := ts.do(http.MethodGet, "/compose/services", "")
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestDockerSystem(t *testing.T) {
	ts := newTestServer(t)
	ts.docker.system = models.DockerSystemResponse{
		Reachable:     true,
		APIVersion:    "1.47",
		ServerVersion: "28.0.4",
		Containers:    7,
		Running:       5,
	}

	w := ts.do(http.MethodGet, "/api/ceo/system/docker", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.DockerSystemResponse
	decode(t, w, &resp)
	assert.Equal(t, ts.docker.system, resp)

	ts.docker.system = models.DockerSystemResponse{Reachable: false, Error: "Cannot connect to the Docker daemon"}
	w = ts.do(http.MethodGet, "/system/docker", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"reachable":false`)
}
