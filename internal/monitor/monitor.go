package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/github"
	"github.com/afro-network/ceo-agent/internal/models"
)

// DefaultSchedule runs the check every five minutes
const DefaultSchedule = "*/5 * * * *"

// StatusSource reports the current network status
type StatusSource interface {
	Status(ctx context.Context) models.NetworkStatus
}

// IssueCreator files GitHub issues
type IssueCreator interface {
	CreateIssue(ctx context.Context, title, body string, labels []string) (*models.IssueRef, error)
}

// IncidentStore persists open and resolved outages
type IncidentStore interface {
	FindOpen(ctx context.Context, network string) (*models.Incident, error)
	Create(ctx context.Context, incident *models.Incident) error
	Resolve(ctx context.Context, id uint, at time.Time) error
}

// network describes how an outage of one network is reported
type network struct {
	name   string
	title  string
	labels []string
	pick   func(models.NetworkStatus) models.EndpointStatus
}

var networks = []network{
	{
		name:   "mainnet",
		title:  "Network Issue: Mainnet Services Down",
		labels: []string{"critical", "mainnet", "auto-generated"},
		pick:   func(s models.NetworkStatus) models.EndpointStatus { return s.Mainnet },
	},
	{
		name:   "testnet",
		title:  "Network Issue: Testnet Services Down",
		labels: []string{"testnet", "auto-generated"},
		pick:   func(s models.NetworkStatus) models.EndpointStatus { return s.Testnet },
	},
}

// Config configures a Monitor
type Config struct {
	Schedule  string
	Source    StatusSource
	Issues    IssueCreator
	Incidents IncidentStore
	Logger    *logrus.Logger
}

// Monitor runs the network check on a cron schedule
type Monitor struct {
	cron      *cron.Cron
	schedule  string
	source    StatusSource
	issues    IssueCreator
	incidents IncidentStore
	logger    *logrus.Logger

	mu      sync.Mutex
	started bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMonitor validates the schedule and registers the check
func NewMonitor(cfg Config) (*Monitor, error) {
	if cfg.Source == nil {
		return nil, errors.New("monitor requires a status source")
	}
	if cfg.Incidents == nil {
		return nil, errors.New("monitor requires an incident store")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid monitor schedule %q: %w", cfg.Schedule, err)
	}

	m := &Monitor{
		cron:      cron.New(cron.WithLogger(cron.PrintfLogger(cfg.Logger))),
		schedule:  cfg.Schedule,
		source:    cfg.Source,
		issues:    cfg.Issues,
		incidents: cfg.Incidents,
		logger:    cfg.Logger,
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())

	if _, err := m.cron.AddFunc(cfg.Schedule, m.tick); err != nil {
		return nil, fmt.Errorf("failed to schedule monitor: %w", err)
	}
	return m, nil
}

// Start begins running checks in the background
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true
	m.cron.Start()
	m.logger.WithField("schedule", m.schedule).Info("Network monitor started")
}

// Stop halts the schedule and waits for a running check up to ctx's deadline
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil
	}
	m.started = false
	m.cancel()

	select {
	case <-m.cron.Stop().Done():
		m.logger.Info("Network monitor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) tick() {
	defer func() {
		if r := recover(); r != nil {
			m.logger.WithField("panic", r).Error("Network monitor check panicked")
		}
	}()
	m.Check(m.ctx)
}

// Check runs one monitoring pass. An issue is filed only when a network
// goes from healthy to down, and the incident is closed on recovery.
func (m *Monitor) Check(ctx context.Context) models.NetworkStatus {
	status := m.source.Status(ctx)
	recordStatus(status)

	m.logger.WithFields(logrus.Fields{
		"mainnet_rpc":      status.Mainnet.RPC,
		"mainnet_explorer": status.Mainnet.Explorer,
		"testnet_rpc":      status.Testnet.RPC,
		"testnet_explorer": status.Testnet.Explorer,
	}).Info("Network status check")

	for _, n := range networks {
		if err := m.reconcile(ctx, n, status); err != nil {
			m.logger.WithError(err).WithField("network", n.name).Error("Failed to update incident")
		}
	}
	return status
}

func (m *Monitor) reconcile(ctx context.Context, n network, status models.NetworkStatus) error {
	endpoints := n.pick(status)

	open, err := m.incidents.FindOpen(ctx, n.name)
	if err != nil {
		return fmt.Errorf("failed to load open incident: %w", err)
	}

	switch {
	case endpoints.Healthy() && open != nil:
		if err := m.incidents.Resolve(ctx, open.ID, status.Timestamp); err != nil {
			return fmt.Errorf("failed to resolve incident: %w", err)
		}
		incidentsTotal.WithLabelValues(n.name, "resolved").Inc()
		m.logger.WithFields(logrus.Fields{"network": n.name, "incident": open.ID}).Info("Network recovered")
		return nil

	case !endpoints.Healthy() && open == nil:
		incident := &models.Incident{
			Network: n.name,
			Details: models.JSONMap{
				"rpc":      endpoints.RPC,
				"explorer": endpoints.Explorer,
			},
			OpenedAt: status.Timestamp,
		}

		if issue := m.fileIssue(ctx, n, endpoints, status.Timestamp); issue != nil {
			number := issue.Number
			incident.IssueNumber = &number
			incident.IssueURL = issue.URL
		}

		if err := m.incidents.Create(ctx, incident); err != nil {
			return fmt.Errorf("failed to record incident: %w", err)
		}
		incidentsTotal.WithLabelValues(n.name, "opened").Inc()
		m.logger.WithFields(logrus.Fields{"network": n.name, "incident": incident.ID}).Warn("Network down")
	}
	return nil
}

func (m *Monitor) fileIssue(ctx context.Context, n network, endpoints models.EndpointStatus, at time.Time) *models.IssueRef {
	if m.issues == nil {
		return nil
	}

	issue, err := m.issues.CreateIssue(ctx, n.title, issueBody(n.name, endpoints, at), n.labels)
	if err != nil {
		if !errors.Is(err, github.ErrGitHubNotConfigured) {
			m.logger.WithError(err).WithField("network", n.name).Error("Failed to create network issue")
		}
		return nil
	}
	return issue
}

func issueBody(network string, endpoints models.EndpointStatus, at time.Time) string {
	detail, _ := json.MarshalIndent(endpoints, "", "  ")
	name := strings.ToUpper(network[:1]) + network[1:]
	return fmt.Sprintf("**Issue:** %s services are experiencing problems.\n\n**Status:** %s\n\n**Time:** %s\n\n*This issue was automatically created by the CEO Agent monitoring system.*",
		name, detail, at.UTC().Format(time.RFC3339))
}
