package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "lines", cfg.Policy.Kind)
	assert.Equal(t, "test-split#1", cfg.Policy.SplitName)
	assert.Equal(t, 2, cfg.Policy.FanOut)
	assert.Equal(t, "convention", cfg.Naming.Scheme)
	assert.Equal(t, "out:", cfg.Transform.Prefix)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Zero(t, cfg.GetLineDelay())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "docworker.yaml")

	cfg := DefaultConfig()
	cfg.Policy.Kind = "name"
	cfg.Policy.FanOut = 4
	cfg.Naming.Scheme = "id"
	cfg.Transform.LineDelay = "250ms"
	cfg.Postgres.DSN = "host=localhost dbname=docworker"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, 250*time.Millisecond, loaded.GetLineDelay())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docworker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  kind: name\nworker:\n  concurrency: 8\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "name", cfg.Policy.Kind)
	assert.Equal(t, "test-split#1", cfg.Policy.SplitName)
	assert.Equal(t, 8, cfg.Worker.Concurrency)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docworker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCWORKER_REDIS_ADDR", "redis:6380")
	t.Setenv("DOCWORKER_POSTGRES_DSN", "postgres://ledger")
	t.Setenv("DOCWORKER_HTTP_ADDR", ":9090")
	t.Setenv("DOCWORKER_POLICY", "name")
	t.Setenv("DOCWORKER_NAMING", "id")
	t.Setenv("DOCWORKER_LOG_LEVEL", "debug")
	t.Setenv("DOCWORKER_CONCURRENCY", "12")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, "postgres://ledger", cfg.Postgres.DSN)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "name", cfg.Policy.Kind)
	assert.Equal(t, "id", cfg.Naming.Scheme)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 12, cfg.Worker.Concurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown policy", func(c *Config) { c.Policy.Kind = "random" }, "policy.kind"},
		{"name policy without name", func(c *Config) { c.Policy.Kind = "name"; c.Policy.SplitName = "" }, "split_name"},
		{"name policy fan-out", func(c *Config) { c.Policy.Kind = "name"; c.Policy.FanOut = 1 }, "fan_out"},
		{"unknown naming", func(c *Config) { c.Naming.Scheme = "hash" }, "naming.scheme"},
		{"unknown transform", func(c *Config) { c.Transform.Name = "rot13" }, "transform.name"},
		{"bad delay", func(c *Config) { c.Transform.LineDelay = "soon" }, "line_delay"},
		{"zero concurrency", func(c *Config) { c.Worker.Concurrency = 0 }, "concurrency"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}
