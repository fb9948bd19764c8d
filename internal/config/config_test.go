package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[server]
http_port = 9090

[database]
host = "db"
port = 5433
user = "schedule"
password = "secret"
dbname = "or_schedule"
tx_timeout_seconds = 3

[logs]
level = "debug"
format = "console"

[rabbitmq]
enabled = true
queue = "or.commands"

[rate_limit]
enabled = true
capacity = 5
refill_tokens = 1
refill_interval_ms = 200
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeout, "missing keys keep defaults")
	assert.Equal(t, "or_schedule", cfg.Database.DBName)
	assert.Equal(t, 3, cfg.Database.TxTimeoutSeconds)
	assert.Equal(t, "console", cfg.Logs.Format)
	assert.True(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, "or.commands", cfg.RabbitMQ.Queue)
	assert.Equal(t, 5, cfg.RateLimit.Capacity)
	assert.Equal(t,
		"host=db port=5433 user=schedule password=secret dbname=or_schedule sslmode=disable",
		cfg.Database.DSN())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.Equal(t, 8081, cfg.Server.HTTPPort)
	assert.Equal(t, "warn", cfg.Logs.Level)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeConfig(t, "[server\nhttp_port = 1"))
	assert.Error(t, err)

	t.Setenv("DB_PORT", "five")
	_, err = Load(writeConfig(t, sample))
	assert.ErrorContains(t, err, "DB_PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero port", func(c *Config) { c.Server.HTTPPort = 0 }},
		{"negative timeout", func(c *Config) { c.Server.ShutdownTimeout = -1 }},
		{"empty dbname", func(c *Config) { c.Database.DBName = "" }},
		{"negative tx timeout", func(c *Config) { c.Database.TxTimeoutSeconds = -1 }},
		{"rabbit without queue", func(c *Config) { c.RabbitMQ.Enabled = true; c.RabbitMQ.Queue = "" }},
		{"zero capacity", func(c *Config) { c.RateLimit.Capacity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
