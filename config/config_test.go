package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fberrors "github.com/c360/flowbridge/errors"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, StatusModeLog, cfg.Status.Mode)
	assert.Equal(t, ".", cfg.Output.Dir)
}

func TestParseLayersOverDefaults(t *testing.T) {
	raw := []byte(`
ai:
  enabled: true
  endpoint: https://api.example.com/v1/chat/completions
  model: gpt-4o
  timeout: 30s
status:
  mode: nats
  nats_url: nats://localhost:4222
metrics:
  enabled: true
`)
	cfg, err := Parse(raw)
	require.NoError(t, err)

	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "gpt-4o", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)

	assert.Equal(t, StatusModeNATS, cfg.Status.Mode)
	assert.Equal(t, "flowbridge.status", cfg.Status.Subject, "default subject survives partial override")
	assert.Equal(t, ":9464", cfg.Metrics.ListenAddr)
}

func TestParseResolvesAPIKeyFromEnv(t *testing.T) {
	t.Setenv("FLOWBRIDGE_TEST_KEY", "sk-secret")

	raw := []byte(`
ai:
  enabled: true
  endpoint: https://api.example.com/v1/chat/completions
  model: gpt-4o
  api_key_env: FLOWBRIDGE_TEST_KEY
`)
	cfg, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.AI.APIKey())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ai enabled without endpoint", func(c *Config) {
			c.AI.Enabled = true
			c.AI.Endpoint = ""
		}},
		{"ai enabled without model", func(c *Config) {
			c.AI.Enabled = true
			c.AI.Endpoint = "https://x"
			c.AI.Model = ""
		}},
		{"unknown status mode", func(c *Config) { c.Status.Mode = "carrier-pigeon" }},
		{"nats mode without subject", func(c *Config) {
			c.Status.Mode = StatusModeNATS
			c.Status.Subject = ""
		}},
		{"metrics without listen addr", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.ListenAddr = ""
		}},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, fberrors.IsInvalid(err))
		})
	}
}

func TestValidateNormalizes(t *testing.T) {
	cfg := Default()
	cfg.Status.Mode = "  NATS "
	cfg.Output.Dir = ""
	require.NoError(t, cfg.Validate())

	assert.Equal(t, StatusModeNATS, cfg.Status.Mode)
	assert.Equal(t, ".", cfg.Output.Dir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/flowbridge.yaml")
	require.Error(t, err)
	assert.True(t, fberrors.IsFatal(err))
}
