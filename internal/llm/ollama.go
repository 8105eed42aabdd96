// Package llm queries the local Ollama server that backs the CEO agent.
package llm

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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("afro.ceo.llm")

// ErrLLMUnavailable is returned when Ollama cannot produce an answer
var ErrLLMUnavailable = errors.New("llm unavailable")

const (
	defaultModel   = "llama3"
	defaultTimeout = 2 * time.Minute
	maxErrorBody   = 512
)

// Config configures an OllamaClient
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// Network endpoints quoted in the agent context
	MainnetRPCURL      string
	TestnetRPCURL      string
	MainnetExplorerURL string
	TestnetExplorerURL string

	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// OllamaClient calls the Ollama generate endpoint
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	cfg        Config
	logger     *logrus.Logger
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient creates a client. An empty base URL is allowed; every call
// then fails with ErrLLMUnavailable.
func NewOllamaClient(cfg Config) *OllamaClient {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OllamaClient{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		model:      cfg.Model,
		cfg:        cfg,
		logger:     cfg.Logger,
	}
}

// Model returns the configured model name
func (o *OllamaClient) Model() string {
	return o.model
}

// Ask prepends the agent context to the question and generates an answer
func (o *OllamaClient) Ask(ctx context.Context, question, extraContext string) (string, error) {
	prompt := fmt.Sprintf("%s\n\nCONTEXT: %s\n\nQUESTION: %s", o.SystemContext(), extraContext, question)
	return o.Generate(ctx, prompt)
}

// Generate sends a raw prompt to Ollama
func (o *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "OllamaClient.Generate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", o.model),
		attribute.Int("llm.prompt_length", len(prompt)),
	)

	fail := func(err error) (string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.WithError(err).WithField("model", o.model).Error("Ollama query failed")
		return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}

	if o.baseURL == "" {
		return fail(errors.New("ollama base url is not configured"))
	}

	body, err := json.Marshal(generateRequest{Model: o.model, Prompt: prompt, Stream: false})
	if err != nil {
		return fail(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("ollama API call failed: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(fmt.Errorf("failed to read response body: %w", err))
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		if resp.StatusCode == http.StatusNotFound &&
			json.Unmarshal(respBody, &errResp) == nil &&
			strings.Contains(errResp.Error, "not found") {
			return fail(fmt.Errorf("model %q not found, run 'ollama pull %s'", o.model, o.model))
		}
		return fail(fmt.Errorf("ollama failed with status %d: %s", resp.StatusCode, truncate(string(respBody), maxErrorBody)))
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return fail(fmt.Errorf("failed to parse ollama response: %w", err))
	}

	o.logger.WithFields(logrus.Fields{
		"model":       o.model,
		"duration_ms": time.Since(start).Milliseconds(),
		"length":      len(out.Response),
	}).Debug("Received response from Ollama")
	return out.Response, nil
}

// SystemContext is the persona and network facts prepended to every question
func (o *OllamaClient) SystemContext() string {
	return fmt.Sprintf(`You are the CEO of Afro Network, a blockchain network that integrates mobile money systems with blockchain technology. Your role is to:

1. STRATEGIC PLANNING: Provide strategic guidance for the Afro Network development
2. CUSTOMER SUPPORT: Answer questions about the network, mobile money integration, and technical aspects
3. ISSUE MANAGEMENT: Identify problems and create actionable GitHub issues
4. TEAM COORDINATION: Communicate with developers and manage project coordination
5. NETWORK OVERSIGHT: Monitor network health and performance

KEY KNOWLEDGE AREAS:
- Afro Network uses Chain ID 7878 (mainnet) and 7879 (testnet)
- Mobile money integration with format: afro:[MSISDN]:[extra_characters]
- Supports Kenya mobile money (254 country code, 700000000 operator code)
- Address generation uses brute-force algorithm with SMS validation
- Network includes validator nodes, block explorers, and web frontend
- Built on Ethereum-compatible blockchain with custom address format

CURRENT NETWORK STATUS:
- Mainnet RPC: %s
- Testnet RPC: %s
- Mainnet Explorer: %s
- Testnet Explorer: %s

Always respond as a knowledgeable CEO who understands both the technical and business aspects of the network.`,
		o.cfg.MainnetRPCURL, o.cfg.TestnetRPCURL, o.cfg.MainnetExplorerURL, o.cfg.TestnetExplorerURL)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
