package docker

import (
	"context"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/pkg/errors"

	"github.com/afro-network/ceo-agent/internal/stack"
)

// APILister lists running containers through the Engine API
type APILister struct {
	manager *Manager
	prefix  string
}

var _ stack.ContainerLister = (*APILister)(nil)

// NewAPILister creates a lister filtering container names by prefix
func NewAPILister(manager *Manager, prefix string) *APILister {
	return &APILister{manager: manager, prefix: prefix}
}

// ListContainers implements stack.ContainerLister
func (l *APILister) ListContainers(ctx context.Context) ([]stack.Container, error) {
	api, err := l.manager.API()
	if err != nil {
		return nil, err
	}

	opts := container.ListOptions{All: false}
	if l.prefix != "" {
		opts.Filters = filters.NewArgs(filters.Arg("name", l.prefix))
	}

	list, err := api.ContainerList(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list containers")
	}

	out := make([]stack.Container, 0, len(list))
	for _, c := range list {
		out = append(out, stack.Container{
			Name:   containerName(c.Names, c.ID),
			Status: c.Status,
			Up:     c.State == "running" || stack.IsUp(c.Status),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func containerName(names []string, id string) string {
	if len(names) == 0 {
		if len(id) > 12 {
			return id[:12]
		}
		return id
	}
	return strings.TrimPrefix(names[0], "/")
}
