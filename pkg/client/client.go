package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/afro-network/ceo-agent/internal/docker"
	"github.com/afro-network/ceo-agent/internal/models"
	"github.com/afro-network/ceo-agent/internal/stack"
)

// API paths
const (
	APIPathHealth          = "/health"
	APIPathModes           = "/modes"
	APIPathStackStatus     = "/stack-status"
	APIPathStackOperation  = "/stack-operation"
	APIPathGitOperation    = "/git-operation"
	APIPathDockerExecute   = "/docker-execute"
	APIPathOperations      = "/operations"
	APIPathLogs            = "/logs"
	APIPathComposeServices = "/compose/services"
	APIPathSystemDocker    = "/system/docker"
	APIPathNetworkStatus   = "/status"
	APIPathChat            = "/chat"
	APIPathConversations   = "/conversations"
	APIPathProposals       = "/proposals"
	APIPathAgentic         = "/agentic-proposals"
	APIPathAgenticPublish  = "/agentic-proposals/publish"
	APIPathGenerate        = "/generate-proposal"
)

// Common errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("conflict")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrServerError        = errors.New("server error")
	ErrUnavailable        = errors.New("service unavailable")
	ErrTimeout            = errors.New("request timeout")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrBackendUnreachable = errors.New("backend unreachable")
)

// ClientOption represents a functional option for configuring the client
type ClientOption func(*ClientConfig) error

// ClientConfig represents the configuration for the client
type ClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	UserAgent   string
	AccessToken string
	HTTPClient  *http.Client
	Headers     map[string]string
}

// DefaultClientConfig returns the default client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    "http://localhost:3000",
		Timeout:    time.Minute * 11,
		MaxRetries: 2,
		RetryDelay: time.Millisecond * 500,
		UserAgent:  "stackctl/1.0",
		Headers:    make(map[string]string),
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(config *ClientConfig) error {
		if baseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return fmt.Errorf("invalid base URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid base URL scheme %q", u.Scheme)
		}
		config.BaseURL = baseURL
		return nil
	}
}

// WithTimeout sets the timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(config *ClientConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		config.Timeout = timeout
		return nil
	}
}

// WithRetryOptions sets the retry options. Only GET requests are retried.
func WithRetryOptions(maxRetries int, retryDelay time.Duration) ClientOption {
	return func(config *ClientConfig) error {
		if maxRetries < 0 {
			return fmt.Errorf("max retries cannot be negative")
		}
		if retryDelay < 0 {
			return fmt.Errorf("retry delay cannot be negative")
		}
		config.MaxRetries = maxRetries
		config.RetryDelay = retryDelay
		return nil
	}
}

// WithUserAgent sets the user agent
func WithUserAgent(userAgent string) ClientOption {
	return func(config *ClientConfig) error {
		if userAgent == "" {
			return fmt.Errorf("user agent cannot be empty")
		}
		config.UserAgent = userAgent
		return nil
	}
}

// WithAccessToken sets the operator bearer token
func WithAccessToken(token string) ClientOption {
	return func(config *ClientConfig) error {
		config.AccessToken = token
		return nil
	}
}

// WithHTTPClient sets the HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(config *ClientConfig) error {
		if client == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		config.HTTPClient = client
		return nil
	}
}

// WithHeader adds a header sent with every request
func WithHeader(key, value string) ClientOption {
	return func(config *ClientConfig) error {
		if key == "" {
			return fmt.Errorf("header key cannot be empty")
		}
		if config.Headers == nil {
			config.Headers = make(map[string]string)
		}
		config.Headers[key] = value
		return nil
	}
}

// APIClient talks to the CEO Agent backend
type APIClient struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(opts ...ClientOption) (*APIClient, error) {
	config := DefaultClientConfig()

	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, fmt.Errorf("option application failed: %w", err)
		}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &APIClient{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the configured backend URL
func (c *APIClient) BaseURL() string {
	return c.config.BaseURL
}

// buildURL builds the full URL for a given path
func (c *APIClient) buildURL(path string) string {
	baseURL := strings.TrimSuffix(c.config.BaseURL, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return baseURL + path
}

// newRequest creates a new HTTP request
func (c *APIClient) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Request, error) {
	u := c.buildURL(path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	}
	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// Do sends an HTTP request, retrying idempotent requests on connection
// failures and 5xx responses.
func (c *APIClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	retries := 0
	if req.Method == http.MethodGet || req.Method == http.MethodHead {
		retries = c.config.MaxRetries
	}

	var resp *http.Response
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var urlErr *url.Error
			if errors.As(err, &urlErr) && urlErr.Timeout() {
				if attempt < retries {
					continue
				}
				return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
			}
			if attempt < retries {
				continue
			}
			return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}

		if resp.StatusCode >= 500 && attempt < retries {
			resp.Body.Close()
			continue
		}
		break
	}

	return resp, nil
}

// errorEnvelope mirrors the server error body
type errorEnvelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	} `json:"error"`
}

func statusError(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return ErrBadRequest
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		return ErrServerError
	}
}

// handleResponse decodes a 2xx body into out and turns everything else into
// an error wrapping one of the package sentinels.
func (c *APIClient) handleResponse(resp *http.Response, out interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %w", statusError(resp.StatusCode), err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
		return nil
	}

	baseErr := statusError(resp.StatusCode)
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		if envelope.Error.Details != "" {
			return fmt.Errorf("%w: API error (%s): %s: %s", baseErr, envelope.Error.Code, envelope.Error.Message, envelope.Error.Details)
		}
		return fmt.Errorf("%w: API error (%s): %s", baseErr, envelope.Error.Code, envelope.Error.Message)
	}

	snippet := string(body)
	if len(snippet) > 100 {
		snippet = snippet[:100] + "..."
	}
	return fmt.Errorf("%w: status %d (body: %s)", baseErr, resp.StatusCode, snippet)
}

// doRequest is a helper function to make requests and handle responses
func (c *APIClient) doRequest(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, out)
}

// doOperation posts a command request. Validation rejections arrive as 400
// with the same staged body as a success, so both decode into out.
func (c *APIClient) doOperation(ctx context.Context, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		return c.handleResponse(resp, out)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %w", ErrBadRequest, err)
	}
	var staged struct {
		Stage string `json:"stage"`
	}
	if json.Unmarshal(raw, &staged) == nil && staged.Stage != "" {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
		return nil
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return c.handleResponse(resp, out)
}

// Health checks the backend liveness endpoint
func (c *APIClient) Health(ctx context.Context) (*models.HealthResponse, error) {
	var resp models.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, APIPathHealth, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Modes lists the operation modes and known services
func (c *APIClient) Modes(ctx context.Context) (*models.ModesResponse, error) {
	var resp models.ModesResponse
	if err := c.doRequest(ctx, http.MethodGet, APIPathModes, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StackStatus returns the per-group running flags
func (c *APIClient) StackStatus(ctx context.Context) (*stack.StackStatus, error) {
	var resp stack.StackStatus
	if err := c.doRequest(ctx, http.MethodGet, APIPathStackStatus, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StackStatusDetail returns the status together with the parsed containers
func (c *APIClient) StackStatusDetail(ctx context.Context) (*stack.StatusReport, error) {
	var resp stack.StatusReport
	query := url.Values{"detail": []string{"true"}}
	if err := c.doRequest(ctx, http.MethodGet, APIPathStackStatus, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Operate runs start, stop or restart. A rejected request returns a response
// with Stage "validating" and a nil error.
func (c *APIClient) Operate(ctx context.Context, req stack.OperationRequest) (*stack.OperationResponse, error) {
	var resp stack.OperationResponse
	if err := c.doOperation(ctx, APIPathStackOperation, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Git runs clone, pull or build against the stack repository
func (c *APIClient) Git(ctx context.Context, operation string) (*stack.OperationResponse, error) {
	var resp stack.OperationResponse
	body := models.GitOperationRequest{Operation: operation}
	if err := c.doOperation(ctx, APIPathGitOperation, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Execute runs an allow-listed docker, docker-compose or git command
func (c *APIClient) Execute(ctx context.Context, command string) (*models.DockerExecuteResponse, error) {
	var resp models.DockerExecuteResponse
	body := models.DockerExecuteRequest{Command: command}
	if err := c.doOperation(ctx, APIPathDockerExecute, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Operations lists recorded stack and git operations, newest first. Empty
// kind lists both; limit 0 uses the server default.
func (c *APIClient) Operations(ctx context.Context, kind string, limit int) (*models.OperationListResponse, error) {
	query := url.Values{}
	if kind != "" {
		query.Set("kind", kind)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp models.OperationListResponse
	if err := c.doRequest(ctx, http.MethodGet, APIPathOperations, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logs returns the last tail lines of a service container. A tail of 0 uses
// the server default.
func (c *APIClient) Logs(ctx context.Context, service string, tail int) (*models.ServiceLogsResponse, error) {
	query := url.Values{}
	if tail > 0 {
		query.Set("tail", strconv.Itoa(tail))
	}
	var resp models.ServiceLogsResponse
	path := APIPathLogs + "/" + url.PathEscape(service)
	if err := c.doRequest(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FollowLogs streams a service's log lines over a websocket until ctx is
// cancelled or the server closes the stream. Each line is handed to emit.
func (c *APIClient) FollowLogs(ctx context.Context, service string, tail int, emit func(docker.LogLine)) error {
	u, err := url.Parse(c.buildURL(APIPathLogs + "/" + url.PathEscape(service) + "/follow"))
	if err != nil {
		return fmt.Errorf("invalid follow URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if tail > 0 {
		u.RawQuery = url.Values{"tail": []string{strconv.Itoa(tail)}}.Encode()
	}

	header := http.Header{}
	header.Set("User-Agent", c.config.UserAgent)
	if c.config.AccessToken != "" {
		header.Set("Authorization", "Bearer "+c.config.AccessToken)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return c.handleResponse(resp, nil)
		}
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		var line docker.LogLine
		if err := conn.ReadJSON(&line); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("%w: log stream closed: %s", ErrServerError, closeErr.Text)
			}
			return fmt.Errorf("log stream failed: %w", err)
		}
		emit(line)
	}
}

// ComposeServices describes the services in the stack's compose file
func (c *APIClient) ComposeServices(ctx context.Context) (*models.ComposeServicesResponse, error) {
	var resp models.ComposeServicesResponse
	if err := c.doRequest(ctx, http.MethodGet, APIPathComposeServices, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DockerSystem reports Docker daemon reachability
func (c *APIClient) DockerSystem(ctx context.Context) (*models.DockerSystemResponse, error) {
	var resp models.DockerSystemResponse
	if err := c.doRequest(ctx, http.MethodGet, APIPathSystemDocker, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NetworkStatus probes mainnet and testnet RPC and explorer endpoints
func (c *APIClient) NetworkStatus(ctx context.Context) (*models.NetworkStatus, error) {
	var resp models.NetworkStatus
	if err := c.doRequest(ctx, http.MethodGet, APIPathNetworkStatus, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Chat sends a message to the CEO agent
func (c *APIClient) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := c.doRequest(ctx, http.MethodPost, APIPathChat, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Conversations returns the most recent conversations
func (c *APIClient) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var resp []models.Conversation
	if err := c.doRequest(ctx, http.MethodGet, APIPathConversations, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListProposals lists proposals, optionally filtered by status
func (c *APIClient) ListProposals(ctx context.Context, status string) ([]models.Proposal, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	var resp []models.Proposal
	if err := c.doRequest(ctx, http.MethodGet, APIPathProposals, query, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateProposal creates a draft proposal
func (c *APIClient) CreateProposal(ctx context.Context, req models.ProposalCreateRequest) (*models.Proposal, error) {
	var resp models.Proposal
	if err := c.doRequest(ctx, http.MethodPost, APIPathProposals, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateProposal applies a partial update to a proposal
func (c *APIClient) UpdateProposal(ctx context.Context, id string, req models.ProposalUpdateRequest) (*models.Proposal, error) {
	var resp models.Proposal
	path := APIPathProposals + "/" + url.PathEscape(id)
	if err := c.doRequest(ctx, http.MethodPut, path, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateProposal asks the LLM to draft an agentic proposal
func (c *APIClient) GenerateProposal(ctx context.Context, req models.GenerateProposalRequest) (*models.AgenticProposal, error) {
	var resp models.AgenticProposal
	if err := c.doRequest(ctx, http.MethodPost, APIPathGenerate, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAgentic lists generated proposals
func (c *APIClient) ListAgentic(ctx context.Context) ([]models.AgenticProposal, error) {
	var resp []models.AgenticProposal
	if err := c.doRequest(ctx, http.MethodGet, APIPathAgentic, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Publish turns a generated proposal into an open proposal and a GitHub issue
func (c *APIClient) Publish(ctx context.Context, id string) (*models.PublishResponse, error) {
	var resp models.PublishResponse
	body := models.PublishProposalRequest{ID: id}
	if err := c.doRequest(ctx, http.MethodPost, APIPathAgenticPublish, nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
