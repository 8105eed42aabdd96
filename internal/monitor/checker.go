// Package monitor probes the network endpoints and files incidents when a
// network goes down.
package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/afro-network/ceo-agent/internal/models"
)

// DefaultProbeTimeout bounds each endpoint probe
const DefaultProbeTimeout = 5 * time.Second

const chainIDRequest = `{"jsonrpc":"2.0","method":"eth_chainId","params":[],"id":1}`

// Endpoints are the URLs probed for each network
type Endpoints struct {
	MainnetRPC      string
	TestnetRPC      string
	MainnetExplorer string
	TestnetExplorer string
}

// Checker probes the four endpoints concurrently
type Checker struct {
	endpoints  Endpoints
	timeout    time.Duration
	httpClient *http.Client
	logger     *logrus.Logger
	now        func() time.Time
}

// NewChecker creates a Checker. A nil httpClient uses a default client.
func NewChecker(endpoints Endpoints, timeout time.Duration, httpClient *http.Client, logger *logrus.Logger) *Checker {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Checker{
		endpoints:  endpoints,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// Status reports which endpoints answered. Probe failures only mark the
// endpoint down.
func (c *Checker) Status(ctx context.Context) models.NetworkStatus {
	status := models.NetworkStatus{Timestamp: c.now().UTC()}

	var g errgroup.Group
	g.Go(func() error {
		status.Mainnet.RPC = c.probeRPC(ctx, "mainnet", c.endpoints.MainnetRPC)
		return nil
	})
	g.Go(func() error {
		status.Testnet.RPC = c.probeRPC(ctx, "testnet", c.endpoints.TestnetRPC)
		return nil
	})
	g.Go(func() error {
		status.Mainnet.Explorer = c.probeExplorer(ctx, "mainnet", c.endpoints.MainnetExplorer)
		return nil
	})
	g.Go(func() error {
		status.Testnet.Explorer = c.probeExplorer(ctx, "testnet", c.endpoints.TestnetExplorer)
		return nil
	})
	_ = g.Wait()

	return status
}

func (c *Checker) probeRPC(ctx context.Context, network, url string) bool {
	return c.probe(ctx, network, "rpc", http.MethodPost, url, strings.NewReader(chainIDRequest))
}

func (c *Checker) probeExplorer(ctx context.Context, network, base string) bool {
	url := ""
	if base != "" {
		url = strings.TrimSuffix(base, "/") + "/api/v1/status"
	}
	return c.probe(ctx, network, "explorer", http.MethodGet, url, nil)
}

func (c *Checker) probe(ctx context.Context, network, kind, method, url string, body io.Reader) bool {
	logger := c.logger.WithFields(logrus.Fields{"network": network, "endpoint": kind})
	if url == "" {
		logger.Debug("Endpoint not configured")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		logger.WithError(err).Warn("Invalid endpoint URL")
		return false
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Info("Endpoint check failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WithField("status_code", resp.StatusCode).Info("Endpoint check failed")
		return false
	}
	return true
}

// String renders a status for log lines
func String(s models.NetworkStatus) string {
	return fmt.Sprintf("mainnet rpc=%t explorer=%t, testnet rpc=%t explorer=%t",
		s.Mainnet.RPC, s.Mainnet.Explorer, s.Testnet.RPC, s.Testnet.Explorer)
}
