package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/pbkdf2"
)

// EnvPrefix is the prefix for every environment variable read by the agent
const EnvPrefix = "AFRO"

// encryptedPrefix marks a configuration value that must be decrypted before use
const encryptedPrefix = "enc:"

// allowedPrograms are the only programs an allow-list prefix may start with
var allowedPrograms = map[string]bool{
	"docker":         true,
	"docker-compose": true,
	"git":            true,
}

// shellMetacharacters may never appear in an allow-list entry
const shellMetacharacters = ";&|$><`\n\r\\"

// ConfigSecurity provides security settings for the configuration
type ConfigSecurity struct {
	// EncryptionKey is the passphrase sensitive values are encrypted with
	EncryptionKey string `mapstructure:"encryption_key"`

	// EncryptionEnabled specifies whether enc: values are decrypted on load
	EncryptionEnabled bool `mapstructure:"encryption_enabled"`

	// StrictTransportSec adds a Strict-Transport-Security header
	StrictTransportSec bool `mapstructure:"strict_transport_security"`

	// ContentSecurityPolicy is sent on every response
	ContentSecurityPolicy string `mapstructure:"content_security_policy"`

	// CORSOrigins lists origins allowed to call the API, "*" allows any
	CORSOrigins []string `mapstructure:"cors_origins"`

	// RateLimiting configuration
	RateLimiting struct {
		Enabled    bool  `mapstructure:"enabled"`
		MaxPerIP   int   `mapstructure:"max_per_ip"`
		WindowSecs int64 `mapstructure:"window_secs"`
	} `mapstructure:"rate_limiting"`
}

// Config holds all configuration for the agent
type Config struct {
	Version string `mapstructure:"version"`

	// Server configuration
	Server struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		Mode            string        `mapstructure:"mode"`
		TrustedProxies  []string      `mapstructure:"trusted_proxies"`
		MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	} `mapstructure:"server"`

	// Stack operations configuration
	Stack struct {
		WorkingDir         string        `mapstructure:"working_dir"`
		ComposeFile        string        `mapstructure:"compose_file"`
		ProjectPrefix      string        `mapstructure:"project_prefix"`
		CommandTimeout     time.Duration `mapstructure:"command_timeout"`
		BuildTimeout       time.Duration `mapstructure:"build_timeout"`
		MaxOutputBytes     int           `mapstructure:"max_output_bytes"`
		AllowedPrefixes    []string      `mapstructure:"allowed_prefixes"`
		RepositoryURL      string        `mapstructure:"repository_url"`
		RepositoryBranch   string        `mapstructure:"repository_branch"`
		StatusSource       string        `mapstructure:"status_source"`
		EnforceModeSubset  bool          `mapstructure:"enforce_mode_subset"`
		StatusRetries      int           `mapstructure:"status_retries"`
		StatusRetryBackoff time.Duration `mapstructure:"status_retry_backoff"`
	} `mapstructure:"stack"`

	// Docker client configuration
	Docker struct {
		Host        string `mapstructure:"host"`
		APIVersion  string `mapstructure:"api_version"`
		TLSVerify   bool   `mapstructure:"tls_verify"`
		TLSCertPath string `mapstructure:"tls_cert_path"`
		TLSKeyPath  string `mapstructure:"tls_key_path"`
		TLSCAPath   string `mapstructure:"tls_ca_path"`
	} `mapstructure:"docker"`

	// Database configuration
	Database struct {
		Type     string `mapstructure:"type"`
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"` // Sensitive
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"ssl_mode"`
		SQLite   struct {
			Path string `mapstructure:"path"`
		} `mapstructure:"sqlite"`
		MaxOpenConns    int           `mapstructure:"max_open_conns"`
		MaxIdleConns    int           `mapstructure:"max_idle_conns"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
		ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	} `mapstructure:"database"`

	// Ollama LLM server
	Ollama struct {
		BaseURL string        `mapstructure:"base_url"`
		Model   string        `mapstructure:"model"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"ollama"`

	// GitHub issue integration
	GitHub struct {
		Token   string        `mapstructure:"token"` // Sensitive
		Repo    string        `mapstructure:"repo"`
		APIURL  string        `mapstructure:"api_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"github"`

	// Network endpoints probed by the monitor
	Network struct {
		MainnetRPCURL      string        `mapstructure:"mainnet_rpc_url"`
		TestnetRPCURL      string        `mapstructure:"testnet_rpc_url"`
		MainnetExplorerURL string        `mapstructure:"mainnet_explorer_url"`
		TestnetExplorerURL string        `mapstructure:"testnet_explorer_url"`
		ProbeTimeout       time.Duration `mapstructure:"probe_timeout"`
		MonitorEnabled     bool          `mapstructure:"monitor_enabled"`
		MonitorSchedule    string        `mapstructure:"monitor_schedule"`
	} `mapstructure:"network"`

	// Operator token authentication
	Auth struct {
		Enabled     bool          `mapstructure:"enabled"`
		Secret      string        `mapstructure:"secret"` // Sensitive
		TokenTTL    time.Duration `mapstructure:"token_ttl"`
		TokenIssuer string        `mapstructure:"token_issuer"`
	} `mapstructure:"auth"`

	// Logging configuration
	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`

	// Metrics configuration
	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"metrics"`

	// Security configuration
	Security ConfigSecurity `mapstructure:"security"`
}

// encryption decrypts enc: values in the configuration
type encryption struct {
	enabled bool
	key     []byte
}

// configManager manages application configuration, including reloading and validation
type configManager struct {
	encryption *encryption
	mu         sync.RWMutex
	log        *logrus.Logger
}

// Global configuration manager
var (
	manager *configManager
	once    sync.Once
)

// GetConfigManager returns the singleton config manager instance
func GetConfigManager() *configManager {
	once.Do(func() {
		manager = &configManager{
			log: logrus.New(),
		}
	})
	return manager
}

// LoadConfig loads the configuration from environment variables and/or config file
func LoadConfig() (*Config, error) {
	return GetConfigManager().Load()
}

// SetLogger replaces the logger used while loading and watching configuration
func (cm *configManager) SetLogger(log *logrus.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if log != nil {
		cm.log = log
	}
}

// Load loads the configuration from environment variables and/or config file
func (cm *configManager) Load() (*Config, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	var config Config

	setDefaults()

	if err := loadConfigFile(); err != nil {
		cm.log.WithError(err).Warning("Failed to load config file, using environment variables only")
	}

	if err := loadEnvVars(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	normalize(&config)

	cm.setupEncryption(&config)
	if err := cm.decryptSensitiveValues(&config); err != nil {
		return nil, fmt.Errorf("failed to decrypt configuration: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Watch logs changes to the config file. The stack allow-list and mode table are
// fixed for the process lifetime, so a change is reported as needing a restart.
func (cm *configManager) Watch(onChange func(fsnotify.Event)) bool {
	if viper.ConfigFileUsed() == "" {
		return false
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		cm.log.WithFields(logrus.Fields{
			"file": e.Name,
			"op":   e.Op.String(),
		}).Warn("Configuration file changed; restart the agent to apply stack settings")
		if onChange != nil {
			onChange(e)
		}
	})
	viper.WatchConfig()
	return true
}

// setupEncryption initializes the encryption utility
func (cm *configManager) setupEncryption(config *Config) {
	cm.encryption = &encryption{
		enabled: config.Security.EncryptionEnabled,
	}

	if !cm.encryption.enabled {
		return
	}

	keyStr := config.Security.EncryptionKey
	if keyStr == "" {
		cm.log.Warning("Encryption enabled but no key provided, encrypted values will fail to decrypt")
		return
	}

	cm.encryption.key = deriveKey(keyStr)
}

func deriveKey(passphrase string) []byte {
	salt := []byte("afro-ceo-agent-config-salt")
	return pbkdf2.Key([]byte(passphrase), salt, 4096, 32, sha256.New)
}

// decryptSensitiveValues decrypts sensitive values in the configuration
func (cm *configManager) decryptSensitiveValues(config *Config) error {
	fields := map[string]*string{
		"database password": &config.Database.Password,
		"auth secret":       &config.Auth.Secret,
		"github token":      &config.GitHub.Token,
	}

	for name, value := range fields {
		if !strings.HasPrefix(*value, encryptedPrefix) {
			continue
		}
		if !cm.encryption.enabled || cm.encryption.key == nil {
			return fmt.Errorf("%s is encrypted but encryption is not configured", name)
		}
		decrypted, err := decryptValue(cm.encryption.key, *value)
		if err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", name, err)
		}
		*value = decrypted
	}

	return nil
}

// EncryptValue encrypts a value with the given passphrase so it can be stored in config
func EncryptValue(passphrase, value string) (string, error) {
	if value == "" || strings.HasPrefix(value, encryptedPrefix) {
		return value, nil
	}

	block, err := aes.NewCipher(deriveKey(passphrase))
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	encrypted := gcm.Seal(nonce, nonce, []byte(value), nil)
	return encryptedPrefix + base64.StdEncoding.EncodeToString(encrypted), nil
}

// decryptValue decrypts a string value
func decryptValue(key []byte, value string) (string, error) {
	encoded := strings.TrimPrefix(value, encryptedPrefix)
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// SafeString returns a string with sensitive information masked
func SafeString(val string) string {
	if val == "" {
		return ""
	}
	return "********"
}

// MaskSensitiveFields returns a copy of the config with sensitive fields masked
func (c *Config) MaskSensitiveFields() Config {
	maskedConfig := *c

	maskedConfig.Database.Password = SafeString(maskedConfig.Database.Password)
	maskedConfig.Auth.Secret = SafeString(maskedConfig.Auth.Secret)
	maskedConfig.GitHub.Token = SafeString(maskedConfig.GitHub.Token)
	maskedConfig.Security.EncryptionKey = SafeString(maskedConfig.Security.EncryptionKey)

	return maskedConfig
}

// String returns a string representation of the config with sensitive information masked
func (c *Config) String() string {
	maskedConfig := c.MaskSensitiveFields()
	configMap := configToMap(maskedConfig)

	var sb strings.Builder
	sb.WriteString("Configuration:\n")
	formatMap(&sb, configMap, 0)

	return sb.String()
}

// GitHubEnabled reports whether issue creation is configured
func (c *Config) GitHubEnabled() bool {
	return c.GitHub.Token != "" && c.GitHub.Repo != ""
}

// configToMap converts a config struct to a map
func configToMap(config interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	val := reflect.ValueOf(config)

	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return result
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldName := typ.Field(i).Name

		if fieldTag := typ.Field(i).Tag.Get("mapstructure"); fieldTag != "" {
			fieldName = fieldTag
		}

		switch field.Kind() {
		case reflect.Struct:
			result[fieldName] = configToMap(field.Interface())
		default:
			result[fieldName] = field.Interface()
		}
	}

	return result
}

// formatMap formats a map as a string with indentation, keys sorted
func formatMap(sb *strings.Builder, m map[string]interface{}, indent int) {
	indentStr := strings.Repeat("  ", indent)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch val := m[k].(type) {
		case map[string]interface{}:
			sb.WriteString(fmt.Sprintf("%s%s:\n", indentStr, k))
			formatMap(sb, val, indent+1)
		default:
			sb.WriteString(fmt.Sprintf("%s%s: %v\n", indentStr, k, val))
		}
	}
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "15m")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.trusted_proxies", []string{})
	viper.SetDefault("server.max_body_bytes", 10<<20)

	// Stack defaults
	viper.SetDefault("stack.working_dir", ".")
	viper.SetDefault("stack.compose_file", "docker-compose.yml")
	viper.SetDefault("stack.project_prefix", "afro")
	viper.SetDefault("stack.command_timeout", "30s")
	viper.SetDefault("stack.build_timeout", "10m")
	viper.SetDefault("stack.max_output_bytes", 1<<20)
	viper.SetDefault("stack.allowed_prefixes", DefaultAllowedPrefixes())
	viper.SetDefault("stack.repository_url", "")
	viper.SetDefault("stack.repository_branch", "main")
	viper.SetDefault("stack.status_source", "cli")
	viper.SetDefault("stack.enforce_mode_subset", true)
	viper.SetDefault("stack.status_retries", 1)
	viper.SetDefault("stack.status_retry_backoff", "500ms")

	// Docker defaults
	viper.SetDefault("docker.host", "")
	viper.SetDefault("docker.api_version", "")
	viper.SetDefault("docker.tls_verify", false)
	viper.SetDefault("docker.tls_cert_path", "")
	viper.SetDefault("docker.tls_key_path", "")
	viper.SetDefault("docker.tls_ca_path", "")

	// Database defaults
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.name", "afro_ceo")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.sqlite.path", "data/ceo-agent.db")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 2)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("database.conn_max_idle_time", "5m")

	// Ollama defaults
	viper.SetDefault("ollama.base_url", "http://localhost:11434")
	viper.SetDefault("ollama.model", "llama3")
	viper.SetDefault("ollama.timeout", "2m")

	// GitHub defaults
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.repo", "")
	viper.SetDefault("github.api_url", "https://api.github.com")
	viper.SetDefault("github.timeout", "15s")

	// Network defaults
	viper.SetDefault("network.mainnet_rpc_url", "http://localhost:8545")
	viper.SetDefault("network.testnet_rpc_url", "http://localhost:8547")
	viper.SetDefault("network.mainnet_explorer_url", "http://localhost:4000")
	viper.SetDefault("network.testnet_explorer_url", "http://localhost:4001")
	viper.SetDefault("network.probe_timeout", "5s")
	viper.SetDefault("network.monitor_enabled", true)
	viper.SetDefault("network.monitor_schedule", "*/5 * * * *")

	// Auth defaults
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.secret", "")
	viper.SetDefault("auth.token_ttl", "12h")
	viper.SetDefault("auth.token_issuer", "afro-ceo-agent")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")

	// Security defaults
	viper.SetDefault("security.encryption_enabled", false)
	viper.SetDefault("security.encryption_key", "")
	viper.SetDefault("security.strict_transport_security", false)
	viper.SetDefault("security.content_security_policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; connect-src 'self'")
	viper.SetDefault("security.cors_origins", []string{"*"})
	viper.SetDefault("security.rate_limiting.enabled", true)
	viper.SetDefault("security.rate_limiting.max_per_ip", 100)
	viper.SetDefault("security.rate_limiting.window_secs", 15*60)
}

// DefaultAllowedPrefixes returns the command prefixes accepted by the raw execute endpoint
func DefaultAllowedPrefixes() []string {
	return []string{
		"docker ps",
		"docker logs",
		"docker inspect",
		"docker stats --no-stream",
		"docker images",
		"docker-compose ps",
		"docker-compose logs",
		"docker-compose config",
		"docker-compose up -d",
		"docker-compose stop",
		"docker-compose down",
		"docker-compose restart",
		"docker-compose build",
		"docker-compose pull",
		"git status",
		"git log",
	}
}

// loadConfigFile loads configuration from a file
func loadConfigFile() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/afro-ceo-agent")

	if err := viper.ReadInConfig(); err != nil {
		// It's ok if config file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}

// loadEnvVars loads configuration from environment variables
func loadEnvVars() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return bindLegacyEnv()
}

// normalize trims list values and resolves the working directory
func normalize(config *Config) {
	prefixes := make([]string, 0, len(config.Stack.AllowedPrefixes))
	for _, p := range config.Stack.AllowedPrefixes {
		prefixes = append(prefixes, strings.Join(strings.Fields(p), " "))
	}
	config.Stack.AllowedPrefixes = prefixes

	if config.Stack.WorkingDir != "" {
		if abs, err := filepath.Abs(config.Stack.WorkingDir); err == nil {
			config.Stack.WorkingDir = abs
		}
	}

	config.Stack.StatusSource = strings.ToLower(strings.TrimSpace(config.Stack.StatusSource))
	config.Ollama.BaseURL = strings.TrimRight(config.Ollama.BaseURL, "/")
	config.GitHub.APIURL = strings.TrimRight(config.GitHub.APIURL, "/")
}

// ValidateAllowedPrefixes checks the raw command allow-list
func ValidateAllowedPrefixes(prefixes []string) []ValidationError {
	var errs []ValidationError

	if len(prefixes) == 0 {
		return append(errs, ValidationError{
			Field:   "stack.allowed_prefixes",
			Message: "allow-list must contain at least one command prefix",
		})
	}

	for i, prefix := range prefixes {
		field := fmt.Sprintf("stack.allowed_prefixes[%d]", i)
		words := strings.Fields(prefix)
		if len(words) == 0 {
			errs = append(errs, ValidationError{Field: field, Message: "empty command prefix"})
			continue
		}
		if !allowedPrograms[words[0]] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("prefix %q must start with docker, docker-compose or git", prefix),
			})
		}
		if strings.ContainsAny(prefix, shellMetacharacters) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("prefix %q contains shell metacharacters", prefix),
			})
		}
	}

	return errs
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	result := ValidationResult{
		Errors: []ValidationError{},
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("invalid server port: %d", config.Server.Port),
		})
	}

	switch config.Server.Mode {
	case "debug", "release", "test":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.mode",
			Message: fmt.Sprintf("unsupported server mode: %s", config.Server.Mode),
		})
	}

	// Stack settings
	if config.Stack.WorkingDir == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "stack.working_dir",
			Message: "working directory cannot be empty",
		})
	}
	if config.Stack.CommandTimeout <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "stack.command_timeout",
			Message: "command timeout must be positive",
		})
	}
	if config.Stack.BuildTimeout < config.Stack.CommandTimeout {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "stack.build_timeout",
			Message: "build timeout must not be shorter than the command timeout",
		})
	}
	if config.Stack.MaxOutputBytes <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "stack.max_output_bytes",
			Message: "max output bytes must be positive",
		})
	}
	if config.Stack.ProjectPrefix == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "stack.project_prefix",
			Message: "project prefix cannot be empty",
		})
	}
	switch config.Stack.StatusSource {
	case "cli", "api":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "stack.status_source",
			Message: fmt.Sprintf("unsupported status source: %s (use cli or api)", config.Stack.StatusSource),
		})
	}
	if config.Stack.StatusRetries < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "stack.status_retries",
			Message: "status retries must be at least 1",
		})
	}
	if config.Stack.RepositoryURL != "" {
		if _, err := url.Parse(config.Stack.RepositoryURL); err != nil || strings.HasPrefix(config.Stack.RepositoryURL, "-") {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "stack.repository_url",
				Message: fmt.Sprintf("invalid repository URL: %s", config.Stack.RepositoryURL),
			})
		}
	}
	if strings.HasPrefix(config.Stack.RepositoryBranch, "-") || config.Stack.RepositoryBranch == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "stack.repository_branch",
			Message: fmt.Sprintf("invalid repository branch: %q", config.Stack.RepositoryBranch),
		})
	}
	result.Errors = append(result.Errors, ValidateAllowedPrefixes(config.Stack.AllowedPrefixes)...)

	// Database settings
	switch config.Database.Type {
	case "sqlite":
		if config.Database.SQLite.Path == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.sqlite.path",
				Message: "sqlite database path is empty",
			})
		}
	case "postgres":
		if config.Database.Host == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.host",
				Message: "postgres host is empty",
			})
		}
		if config.Database.User == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.user",
				Message: "postgres user is empty",
			})
		}
		if config.Database.Name == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "database.name",
				Message: "postgres database name is empty",
			})
		}
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.type",
			Message: fmt.Sprintf("unsupported database type: %s", config.Database.Type),
		})
	}

	if config.Database.MaxOpenConns < 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "database.max_open_conns",
			Message: "max_open_conns must be at least 1",
		})
	}

	// External services
	if _, err := url.ParseRequestURI(config.Ollama.BaseURL); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "ollama.base_url",
			Message: fmt.Sprintf("invalid Ollama URL: %s", config.Ollama.BaseURL),
		})
	}
	if config.GitHub.Repo != "" && len(strings.Split(config.GitHub.Repo, "/")) != 2 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "github.repo",
			Message: fmt.Sprintf("repository must be owner/name, got %s", config.GitHub.Repo),
		})
	}
	if config.Network.ProbeTimeout <= 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "network.probe_timeout",
			Message: "probe timeout must be positive",
		})
	}
	if config.Network.MonitorEnabled && config.Network.MonitorSchedule == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "network.monitor_schedule",
			Message: "monitor schedule cannot be empty when the monitor is enabled",
		})
	}

	// Auth
	if config.Auth.Enabled {
		if len(config.Auth.Secret) < 32 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "auth.secret",
				Message: "auth secret is too short, it should be at least 32 characters",
			})
		}
		if config.Auth.TokenTTL <= 0 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "auth.token_ttl",
				Message: "token TTL must be positive",
			})
		}
	}

	if config.Security.RateLimiting.Enabled {
		if config.Security.RateLimiting.MaxPerIP < 1 || config.Security.RateLimiting.WindowSecs < 1 {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "security.rate_limiting",
				Message: "rate limit needs a positive max_per_ip and window_secs",
			})
		}
	}

	if len(result.Errors) > 0 {
		return result
	}

	return nil
}

// ValidationResult holds validation results
type ValidationResult struct {
	Errors []ValidationError
}

// Error implements the error interface
func (r ValidationResult) Error() string {
	errMsgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		errMsgs = append(errMsgs, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return fmt.Sprintf("configuration validation failed: %s", strings.Join(errMsgs, "; "))
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}
