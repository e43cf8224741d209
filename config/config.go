package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/flowbridge/errors"
)

// Status reporting modes
const (
	StatusModeNone = "none" // no reporting
	StatusModeLog  = "log"  // structured log events only
	StatusModeNATS = "nats" // publish to a NATS subject
)

// Config is the complete engine configuration
type Config struct {
	AI      AIConfig      `yaml:"ai"`
	Status  StatusConfig  `yaml:"status"`
	Metrics MetricsConfig `yaml:"metrics"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// AIConfig configures the optional language-model provider
type AIConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Endpoint  string        `yaml:"endpoint"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"` // env var holding the bearer token
	Timeout   time.Duration `yaml:"timeout"`

	apiKey string // resolved at load time, never serialized
}

// APIKey returns the resolved provider credential
func (a AIConfig) APIKey() string { return a.apiKey }

// StatusConfig configures progress reporting
type StatusConfig struct {
	Mode          string        `yaml:"mode"`
	NATSURL       string        `yaml:"nats_url"`
	Subject       string        `yaml:"subject"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	MaxReconnects int           `yaml:"max_reconnects"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// OutputConfig configures where generated bundles are written
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is supplied
func Default() *Config {
	return &Config{
		AI: AIConfig{
			Enabled:   false,
			Model:     "gpt-4o-mini",
			APIKeyEnv: "FLOWBRIDGE_API_KEY",
			Timeout:   60 * time.Second,
		},
		Status: StatusConfig{
			Mode:          StatusModeLog,
			Subject:       "flowbridge.status",
			ReconnectWait: 2 * time.Second,
			MaxReconnects: 10,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: ":9464",
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file, layers it over the defaults, and
// validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "config", "Load", "read config file")
	}
	return Parse(data)
}

// Parse decodes raw YAML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapFatal(err, "config", "Parse", "decode config yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes and checks the configuration. Called by Load and Parse;
// callers constructing a Config directly must call it themselves.
func (c *Config) Validate() error {
	if c.AI.Enabled {
		if c.AI.Endpoint == "" {
			return invalid("ai.endpoint is required when ai.enabled is true")
		}
		if c.AI.Model == "" {
			return invalid("ai.model is required when ai.enabled is true")
		}
		if c.AI.Timeout < 0 {
			return invalid("ai.timeout cannot be negative")
		}
		if c.AI.APIKeyEnv != "" {
			c.AI.apiKey = os.Getenv(c.AI.APIKeyEnv)
		}
	}

	c.Status.Mode = strings.ToLower(strings.TrimSpace(c.Status.Mode))
	switch c.Status.Mode {
	case StatusModeNone, StatusModeLog, StatusModeNATS:
	case "":
		c.Status.Mode = StatusModeNone
	default:
		return invalid(fmt.Sprintf("status.mode %q is not one of none, log, nats", c.Status.Mode))
	}
	if c.Status.Mode == StatusModeNATS && c.Status.Subject == "" {
		return invalid("status.subject is required when status.mode is nats")
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return invalid("metrics.listen_addr is required when metrics.enabled is true")
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return invalid(fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return invalid(fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	return nil
}

func invalid(msg string) error {
	return errors.WrapInvalid(fmt.Errorf("%s", msg), "config", "Validate", "check configuration")
}
