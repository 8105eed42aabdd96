package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/afro-network/ceo-agent/pkg/client"
)

// Output formats
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// errOperationFailed is returned when the backend reports success false
var errOperationFailed = errors.New("operation failed")

// App carries the global flags shared by every command
type App struct {
	ServerURL string
	Token     string
	Timeout   time.Duration
	Output    string
	Verbose   bool

	logger *logrus.Logger
}

func newApp() *App {
	return &App{}
}

// envOr returns the environment variable or the fallback
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Logger returns the CLI logger, writing to stderr
func (a *App) Logger() *logrus.Logger {
	if a.logger == nil {
		a.logger = logrus.New()
		a.logger.SetOutput(os.Stderr)
		a.logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		a.logger.SetLevel(logrus.WarnLevel)
		if a.Verbose {
			a.logger.SetLevel(logrus.DebugLevel)
		}
	}
	return a.logger
}

// Client builds an API client from the global flags
func (a *App) Client() (*client.APIClient, error) {
	opts := []client.ClientOption{
		client.WithBaseURL(a.ServerURL),
		client.WithUserAgent("stackctl/" + Version),
		client.WithAccessToken(a.Token),
	}
	if a.Timeout > 0 {
		opts = append(opts, client.WithTimeout(a.Timeout))
	}
	return client.NewClient(opts...)
}

// requireBackend runs one probe check and refuses to continue unless the
// backend answered.
func (a *App) requireBackend(ctx context.Context, cmd *cobra.Command, c *client.APIClient) error {
	probe := client.NewProbe(c, client.ProbeConfig{Logger: a.Logger()})
	probe.Check(ctx)
	if err := probe.Require(); err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "backend unreachable: %s\n", c.BaseURL())
		a.Logger().WithError(err).Debug("Health check failed")
		return err
	}
	return nil
}

// validateOutput rejects unknown --output values
func (a *App) validateOutput() error {
	switch strings.ToLower(a.Output) {
	case outputText, outputJSON, outputYAML:
		a.Output = strings.ToLower(a.Output)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", a.Output)
	}
}

// structured writes v as JSON or YAML and reports whether it did
func (a *App) structured(out io.Writer, v interface{}) (bool, error) {
	switch a.Output {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		// round trip through JSON so keys follow the API field names
		raw, err := json.Marshal(v)
		if err != nil {
			return true, err
		}
		var generic interface{}
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return true, err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return true, enc.Encode(generic)
	default:
		return false, nil
	}
}
