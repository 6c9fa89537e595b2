package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "data/repairflow.db", cfg.Database.Path)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Poller.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Poller.PollInterval)
	assert.False(t, cfg.Notifier.Enabled)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadOverrides(t *testing.T) {
	viper.Reset()
	path := writeConfig(t, `
server:
  port: 8888
database:
  path: /tmp/shop.db
poller:
  enabled: false
notifier:
  enabled: true
  webhook_url: http://localhost:9000/hooks/repair
logger:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.Port)
	assert.Equal(t, "/tmp/shop.db", cfg.Database.Path)
	assert.False(t, cfg.Poller.Enabled)
	assert.True(t, cfg.Notifier.Enabled)
	assert.Equal(t, "http://localhost:9000/hooks/repair", cfg.Notifier.WebhookURL)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("REPAIRFLOW_DB_PATH", "/var/lib/repairflow/env.db")
	path := writeConfig(t, "database:\n  path: /tmp/ignored.db\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/repairflow/env.db", cfg.Database.Path)
}

func TestLoadMissingFile(t *testing.T) {
	viper.Reset()
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "data/repairflow.db"},
			Poller:   PollerConfig{Enabled: true, PollInterval: time.Second, BatchSize: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, true},
		{"poller interval zero", func(c *Config) { c.Poller.PollInterval = 0 }, true},
		{"poller disabled skips interval check", func(c *Config) {
			c.Poller.Enabled = false
			c.Poller.PollInterval = 0
		}, false},
		{"notifier without webhook", func(c *Config) { c.Notifier.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
