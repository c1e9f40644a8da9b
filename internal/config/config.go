// Package config loads the grdesk YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
	"git.home.luguber.info/inful/grdesk/internal/foundation/normalization"
	"git.home.luguber.info/inful/grdesk/internal/retry"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "grdesk.yaml"

// Config is the root of the configuration file.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Journal   JournalConfig   `yaml:"journal"`
	Prefs     PrefsConfig     `yaml:"prefs"`
	NATS      NATSConfig      `yaml:"nats"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	// Locale selects the language of user-facing notices (ru, en).
	Locale string `yaml:"locale"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendConfig points at the goods-receipt backend. An empty URL selects
// the in-memory backend.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

// RetryConfig mirrors retry.Policy.
type RetryConfig struct {
	Mode       string        `yaml:"mode"`
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	MaxRetries int           `yaml:"max_retries"`
}

// Policy converts the section into a retry.Policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.NewPolicy(retry.Mode(r.Mode), r.Initial, r.Max, r.MaxRetries)
}

// JournalConfig controls the action journal. An empty path disables it.
type JournalConfig struct {
	Path          string `yaml:"path"`
	ReplayOnStart bool   `yaml:"replay_on_start"`
}

// PrefsConfig locates the preferences file.
type PrefsConfig struct {
	Path string `yaml:"path"`
}

// NATSConfig controls state broadcasting.
type NATSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Subject  string `yaml:"subject"`
	KVBucket string `yaml:"kv_bucket,omitempty"`
}

// SchedulerConfig controls background jobs.
type SchedulerConfig struct {
	StatusRulesInterval time.Duration `yaml:"status_rules_interval"`
	JobTimeout          time.Duration `yaml:"job_timeout"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads path, expands ${VAR} references and applies defaults and
// validation. .env files next to the working directory are loaded first.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).
				WithCause(err).
				Build()
		}
		return nil, ferrors.FileSystemError("failed to read config file").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	return Parse(data)
}

// Parse decodes YAML data into a defaulted, validated Config.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, ferrors.ConfigError("failed to parse config file").WithCause(err).Build()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration written by Init.
func Default() *Config {
	cfg := &Config{
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Server:  ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Backend: BackendConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				Mode:       string(retry.ModeLinear),
				Initial:    200 * time.Millisecond,
				Max:        5 * time.Second,
				MaxRetries: 2,
			},
		},
		Journal: JournalConfig{Path: "grdesk-journal.db", ReplayOnStart: true},
		Prefs:   PrefsConfig{Path: "grdesk-prefs.json"},
		NATS:    NATSConfig{URL: "nats://127.0.0.1:4222", Subject: "grdesk.state"},
		Scheduler: SchedulerConfig{
			StatusRulesInterval: 5 * time.Minute,
			JobTimeout:          30 * time.Second,
		},
		Metrics: MetricsConfig{Enabled: true},
		Locale:  "ru",
	}
	return cfg
}

func (c *Config) applyDefaults() {
	d := Default()
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = d.Backend.Timeout
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = d.NATS.Subject
	}
	if c.Scheduler.JobTimeout <= 0 {
		c.Scheduler.JobTimeout = d.Scheduler.JobTimeout
	}
	c.Locale = normalization.Key(c.Locale)
	if c.Locale == "" {
		c.Locale = d.Locale
	}
}

// Init writes the default configuration to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConflictError("configuration file already exists").
			WithContext("path", path).
			Warning().
			Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.FileSystemError("failed to create config directory").
				WithContext("path", dir).
				WithCause(err).
				Build()
		}
	}

	header := "# grdesk configuration\n# Values may reference environment variables as ${VAR}.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return ferrors.FileSystemError("failed to write config file").
			WithContext("path", path).
			WithCause(err).
			Build()
	}
	return nil
}
