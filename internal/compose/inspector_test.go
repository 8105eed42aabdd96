package compose

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afro-network/ceo-agent/internal/stack"
)

const testCompose = `
services:
  afro-validator:
    image: afronetwork/validator:1.2
    ports:
      - "8545:8545"
    depends_on:
      - afro-db
  afro-db:
    image: postgres
  afro-web:
    build: ./web
    ports:
      - "80:80"
  ceo-agent:
    container_name: afro-ceo
    image: ghcr.io/afro-network/ceo-agent
`

func newTestInspector(t *testing.T, content string) *Inspector {
	dir := t.TempDir()
	if content != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "docker-compose.yml"), []byte(content), 0o644))
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "web"), 0o755))
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewInspector(Config{
		WorkingDir: dir,
		Registry:   stack.MustDefaultRegistry(),
		Logger:     logger,
	})
}

func TestServices(t *testing.T) {
	inspector := newTestInspector(t, testCompose)

	resp, err := inspector.Services(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "afro", resp.Project)
	require.Len(t, resp.Services, 4)

	byName := make(map[string]int)
	for i, s := range resp.Services {
		byName[s.Name] = i
	}

	validator := resp.Services[byName["afro-validator"]]
	assert.True(t, validator.Known)
	assert.Equal(t, "afronetwork/validator:1.2", validator.Image)
	assert.Equal(t, []string{"afro-db"}, validator.DependsOn)
	assert.Equal(t, []string{"8545:8545"}, validator.Ports)
	assert.Contains(t, validator.Modes, "production")

	db := resp.Services[byName["afro-db"]]
	assert.Equal(t, "postgres:latest", db.Image)

	web := resp.Services[byName["afro-web"]]
	assert.True(t, web.Build)

	ceo := resp.Services[byName["ceo-agent"]]
	assert.True(t, ceo.Known, "matched through container_name")
	assert.Equal(t, "ghcr.io/afro-network/ceo-agent:latest", ceo.Image)

	assert.ElementsMatch(t, []string{
		stack.ServiceExplorer,
		stack.ServiceTestnetValidator,
		stack.ServiceTestnetDB,
		stack.ServiceTestnetExplorer,
	}, resp.Missing)
}

func TestServices_NoFile(t *testing.T) {
	inspector := newTestInspector(t, "")

	_, err := inspector.Services(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrComposeFileNotFound)
}

func TestServices_InvalidYAML(t *testing.T) {
	inspector := newTestInspector(t, "services:\n  web:\n    image: [unclosed\n")

	_, err := inspector.Services(context.Background())
	require.Error(t, err)
}

func TestNormalizeImage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"nginx", "nginx:latest"},
		{"library/nginx:1.27", "nginx:1.27"},
		{"docker.io/afronetwork/web", "afronetwork/web:latest"},
		{"ghcr.io/afro/explorer:v2", "ghcr.io/afro/explorer:v2"},
		{"Not A Ref", "Not A Ref"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeImage(tt.in))
		})
	}
}
