// Package docker talks to the Docker Engine API for container status,
// log following and daemon information.
package docker

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/system"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/tlsconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidHost indicates an invalid Docker host
	ErrInvalidHost = errors.New("invalid Docker host specification")

	// ErrMissingTLSConfig indicates incomplete TLS configuration
	ErrMissingTLSConfig = errors.New("TLS verification enabled but certificate paths not provided")

	// ErrClientClosed indicates the manager has been closed
	ErrClientClosed = errors.New("Docker client manager has been closed")
)

// API is the subset of the Docker Engine client the agent uses
type API interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerInspect(ctx context.Context, containerID string) (container.InspectResponse, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	Info(ctx context.Context) (system.Info, error)
	Ping(ctx context.Context) (types.Ping, error)
	Close() error
}

// ClientOption represents a functional option for configuring the Docker client
type ClientOption func(*ClientConfig) error

// ClientConfig represents the configuration for the Docker client
type ClientConfig struct {
	// Host is the Docker daemon socket, empty uses DOCKER_HOST
	Host string

	// APIVersion pins the API version, empty negotiates
	APIVersion string

	TLSVerify   bool
	TLSCertPath string
	TLSKeyPath  string
	TLSCAPath   string

	// PingTimeout bounds connectivity checks
	PingTimeout time.Duration

	Logger *logrus.Logger
}

// DefaultClientConfig returns the default client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout: 5 * time.Second,
		Logger:      logrus.StandardLogger(),
	}
}

// WithHost sets the Docker daemon host
func WithHost(host string) ClientOption {
	return func(config *ClientConfig) error {
		if host == "" {
			return nil
		}
		if !strings.Contains(host, "://") {
			return errors.Wrapf(ErrInvalidHost, "host %q has no scheme", host)
		}
		config.Host = host
		return nil
	}
}

// WithAPIVersion pins the Docker API version
func WithAPIVersion(version string) ClientOption {
	return func(config *ClientConfig) error {
		config.APIVersion = strings.TrimPrefix(version, "v")
		return nil
	}
}

// WithTLSConfig enables TLS verification with the given files
func WithTLSConfig(verify bool, certPath, keyPath, caPath string) ClientOption {
	return func(config *ClientConfig) error {
		config.TLSVerify = verify
		config.TLSCertPath = certPath
		config.TLSKeyPath = keyPath
		config.TLSCAPath = caPath
		return nil
	}
}

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) ClientOption {
	return func(config *ClientConfig) error {
		if logger != nil {
			config.Logger = logger
		}
		return nil
	}
}

// Manager owns a lazily created Docker client
type Manager struct {
	config ClientConfig
	api    API
	closed bool
	mu     sync.Mutex
	logger *logrus.Logger
}

// NewManager validates the options. The daemon is contacted on first use.
func NewManager(opts ...ClientOption) (*Manager, error) {
	config := DefaultClientConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, errors.Wrap(err, "option application failed")
		}
	}

	if config.TLSVerify && (config.TLSCertPath == "" || config.TLSKeyPath == "" || config.TLSCAPath == "") {
		return nil, ErrMissingTLSConfig
	}

	return &Manager{config: config, logger: config.Logger}, nil
}

// NewManagerWithAPI wraps an existing client
func NewManagerWithAPI(api API, logger *logrus.Logger) *Manager {
	config := DefaultClientConfig()
	if logger != nil {
		config.Logger = logger
	}
	return &Manager{config: config, api: api, logger: config.Logger}
}

// API returns the Docker client, creating it if necessary
func (m *Manager) API() (API, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClientClosed
	}
	if m.api != nil {
		return m.api, nil
	}

	cli, err := m.createClient()
	if err != nil {
		return nil, err
	}
	m.api = cli
	return m.api, nil
}

func (m *Manager) createClient() (*client.Client, error) {
	var opts []client.Opt

	if m.config.Host != "" {
		opts = append(opts, client.WithHost(m.config.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}

	if m.config.APIVersion != "" {
		opts = append(opts, client.WithVersion(m.config.APIVersion))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}

	if m.config.TLSVerify {
		tlsConfig, err := tlsconfig.Client(tlsconfig.Options{
			CAFile:   m.config.TLSCAPath,
			CertFile: m.config.TLSCertPath,
			KeyFile:  m.config.TLSKeyPath,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to load Docker TLS configuration")
		}
		opts = append(opts, client.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: tlsConfig,
			},
		}))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Docker client")
	}

	m.logger.WithField("host", cli.DaemonHost()).Debug("Docker client created")
	return cli, nil
}

// Ping checks the connectivity with the Docker daemon
func (m *Manager) Ping(ctx context.Context) (types.Ping, error) {
	api, err := m.API()
	if err != nil {
		return types.Ping{}, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.config.PingTimeout)
	defer cancel()

	ping, err := api.Ping(pingCtx)
	if err != nil {
		return types.Ping{}, errors.Wrap(err, "Docker daemon ping failed")
	}
	return ping, nil
}

// Close closes the client and marks the manager as closed
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if m.api == nil {
		return nil
	}
	err := m.api.Close()
	m.api = nil
	if err != nil {
		return errors.Wrap(err, "failed to close Docker client")
	}
	return nil
}
