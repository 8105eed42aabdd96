// Package github files issues on the network's GitHub repository.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/afro-network/ceo-agent/internal/models"
)

// DefaultAPIURL is the public GitHub REST endpoint
const DefaultAPIURL = "https://api.github.com"

// AgentLabel is attached to every issue the agent files
const AgentLabel = "ceo-agent"

var (
	// ErrGitHubNotConfigured means no token or repository is set. Callers skip issue creation.
	ErrGitHubNotConfigured = errors.New("github integration is not configured")

	// ErrGitHubRequest wraps non-2xx answers from the API
	ErrGitHubRequest = errors.New("github request failed")
)

// Config configures a Client
type Config struct {
	Token   string
	Repo    string
	APIURL  string
	Timeout time.Duration

	// HTTPClient is the transport the oauth2 client wraps
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Client creates issues through the GitHub REST API
type Client struct {
	httpClient *http.Client
	apiURL     string
	owner      string
	repo       string
	logger     *logrus.Logger
}

type createIssueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

type issueResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
	Title   string `json:"title"`
}

// New creates a Client. A client without token or repository is valid but
// every CreateIssue call returns ErrGitHubNotConfigured.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := &Client{
		apiURL: strings.TrimSuffix(cfg.APIURL, "/"),
		logger: cfg.Logger,
	}

	if owner, repo, ok := strings.Cut(cfg.Repo, "/"); ok && owner != "" && repo != "" {
		c.owner, c.repo = owner, repo
	}

	if cfg.Token != "" {
		base := cfg.HTTPClient
		if base == nil {
			base = &http.Client{Timeout: cfg.Timeout}
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		c.httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
		c.httpClient.Timeout = cfg.Timeout
	}

	return c
}

// Enabled reports whether issues can be created
func (c *Client) Enabled() bool {
	return c.httpClient != nil && c.owner != "" && c.repo != ""
}

// Repo returns owner/name
func (c *Client) Repo() string {
	if c.owner == "" {
		return ""
	}
	return c.owner + "/" + c.repo
}

// CreateIssue files an issue. The agent label is always included.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (*models.IssueRef, error) {
	if !c.Enabled() {
		c.logger.WithField("title", title).Debug("GitHub not configured, skipping issue creation")
		return nil, ErrGitHubNotConfigured
	}

	payload, err := json.Marshal(createIssueRequest{
		Title:  title,
		Body:   body,
		Labels: withAgentLabel(labels),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal issue: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues", c.apiURL, c.owner, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &apiErr)
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"message":     apiErr.Message,
			"repo":        c.Repo(),
		}).Error("GitHub issue creation failed")
		return nil, fmt.Errorf("%w: status %d: %s", ErrGitHubRequest, resp.StatusCode, apiErr.Message)
	}

	var issue issueResponse
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse issue response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"number": issue.Number,
		"title":  issue.Title,
	}).Info("Created GitHub issue")

	return &models.IssueRef{Number: issue.Number, URL: issue.HTMLURL, Title: issue.Title}, nil
}

func withAgentLabel(labels []string) []string {
	out := []string{AgentLabel}
	seen := map[string]bool{AgentLabel: true}
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
