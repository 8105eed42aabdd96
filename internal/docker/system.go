package docker

import (
	"context"

	"github.com/afro-network/ceo-agent/internal/models"
)

// System reports daemon reachability and a short summary. Failures are
// reported in the response rather than returned.
func (m *Manager) System(ctx context.Context) models.DockerSystemResponse {
	ping, err := m.Ping(ctx)
	if err != nil {
		m.logger.WithError(err).Warn("Docker daemon unreachable")
		return models.DockerSystemResponse{Reachable: false, Error: err.Error()}
	}

	resp := models.DockerSystemResponse{
		Reachable:  true,
		APIVersion: ping.APIVersion,
	}

	api, err := m.API()
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	info, err := api.Info(ctx)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.ServerVersion = info.ServerVersion
	resp.OS = info.OperatingSystem
	resp.Containers = info.Containers
	resp.Running = info.ContainersRunning
	return resp
}
