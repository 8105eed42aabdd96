// Package compose reads the deployment's docker-compose file and cross-checks
// it against the operation mode registry.
package compose

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"
	"github.com/distribution/reference"
	"github.com/sirupsen/logrus"

	"github.com/afro-network/ceo-agent/internal/models"
	"github.com/afro-network/ceo-agent/internal/stack"
)

const defaultProjectName = "afro"

// ErrComposeFileNotFound is returned when no compose file exists in the working dir
var ErrComposeFileNotFound = errors.New("compose file not found")

// candidateFiles are tried in order when no file is configured
var candidateFiles = []string{"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml"}

// Config configures an Inspector
type Config struct {
	WorkingDir  string
	File        string
	ProjectName string
	Registry    *stack.Registry
	Logger      *logrus.Logger
}

// Inspector loads the compose project on demand
type Inspector struct {
	cfg    Config
	logger *logrus.Logger
}

// NewInspector creates an Inspector
func NewInspector(cfg Config) *Inspector {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = defaultProjectName
	}
	return &Inspector{cfg: cfg, logger: cfg.Logger}
}

// resolveFile returns the absolute compose file path
func (i *Inspector) resolveFile() (string, error) {
	dir := i.cfg.WorkingDir
	if dir == "" {
		dir = "."
	}

	if i.cfg.File != "" {
		path := i.cfg.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrComposeFileNotFound, path)
		}
		return filepath.Abs(path)
	}

	for _, name := range candidateFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return filepath.Abs(path)
		}
	}
	return "", fmt.Errorf("%w in %s", ErrComposeFileNotFound, dir)
}

// Load parses the compose file into a compose-go project
func (i *Inspector) Load(ctx context.Context) (*composetypes.Project, string, error) {
	path, err := i.resolveFile()
	if err != nil {
		return nil, "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read compose file: %w", err)
	}

	configDetails := composetypes.ConfigDetails{
		WorkingDir: filepath.Dir(path),
		ConfigFiles: []composetypes.ConfigFile{
			{Filename: path, Content: content},
		},
		Environment: map[string]string{},
	}

	project, err := loader.LoadWithContext(ctx, configDetails, func(o *loader.Options) {
		o.SetProjectName(i.cfg.ProjectName, true)
		o.SkipValidation = false
		o.SkipResolveEnvironment = true
		o.SkipInterpolation = false
	})
	if err != nil {
		i.logger.WithError(err).WithField("file", path).Error("Failed to load compose file")
		if strings.Contains(err.Error(), "yaml:") {
			return nil, path, fmt.Errorf("failed to parse compose YAML structure: %w", err)
		}
		return nil, path, fmt.Errorf("failed to load compose config: %w", err)
	}

	i.logger.WithFields(logrus.Fields{
		"file":     path,
		"project":  project.Name,
		"services": len(project.Services),
	}).Debug("Loaded compose project")
	return project, path, nil
}

// Services describes every compose service, flags the ones the registry
// knows, and lists known services missing from the file.
func (i *Inspector) Services(ctx context.Context) (*models.ComposeServicesResponse, error) {
	project, path, err := i.Load(ctx)
	if err != nil {
		return nil, err
	}

	resp := &models.ComposeServicesResponse{
		Project:  project.Name,
		File:     path,
		Services: make([]models.ComposeServiceResponse, 0, len(project.Services)),
	}

	seen := make(map[stack.ServiceID]bool)
	for _, name := range sortedNames(project.Services) {
		svc := project.Services[name]
		out := describeService(name, svc)

		if id, ok := serviceID(name, svc.ContainerName); ok {
			out.Known = true
			seen[id] = true
			if i.cfg.Registry != nil {
				out.Modes = i.cfg.Registry.ModesIncluding(id)
			}
		}
		resp.Services = append(resp.Services, out)
	}

	for _, id := range stack.KnownServices() {
		if !seen[id] {
			resp.Missing = append(resp.Missing, id)
		}
	}

	if len(resp.Missing) > 0 {
		i.logger.WithField("missing", resp.Missing).Warn("Compose file lacks services referenced by operation modes")
	}
	return resp, nil
}

func serviceID(name, containerName string) (stack.ServiceID, bool) {
	if id, ok := stack.NormalizeService(name); ok {
		return id, true
	}
	if containerName != "" {
		return stack.NormalizeService(containerName)
	}
	return "", false
}

func describeService(name string, svc composetypes.ServiceConfig) models.ComposeServiceResponse {
	out := models.ComposeServiceResponse{
		Name:          name,
		ContainerName: svc.ContainerName,
		Image:         NormalizeImage(svc.Image),
		Build:         svc.Build != nil,
	}

	for dep := range svc.DependsOn {
		out.DependsOn = append(out.DependsOn, dep)
	}
	sort.Strings(out.DependsOn)

	for _, p := range svc.Ports {
		port := strconv.FormatUint(uint64(p.Target), 10)
		if p.Published != "" {
			port = p.Published + ":" + port
		}
		if p.Protocol != "" && p.Protocol != "tcp" {
			port += "/" + p.Protocol
		}
		out.Ports = append(out.Ports, port)
	}
	return out
}

// NormalizeImage returns the familiar form of an image reference with an
// explicit tag. Unparseable references are returned unchanged.
func NormalizeImage(image string) string {
	if image == "" {
		return ""
	}
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return image
	}
	return reference.FamiliarString(reference.TagNameOnly(named))
}

func sortedNames(services composetypes.Services) []string {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
