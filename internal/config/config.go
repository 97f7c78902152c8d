package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all docworker configuration.
type Config struct {
	// Mode selection
	Policy PolicyConfig `yaml:"policy"`

	// Fragment and result file naming
	Naming NamingConfig `yaml:"naming"`

	// Per-line work of normal invocations
	Transform TransformConfig `yaml:"transform"`

	// Queue and event transport for the consume command
	Redis RedisConfig `yaml:"redis"`

	// Invocation ledger
	Postgres PostgresConfig `yaml:"postgres"`

	HTTP   HTTPConfig   `yaml:"http"`
	Worker WorkerConfig `yaml:"worker"`

	Logging LoggingConfig `yaml:"logging"`
}

// PolicyConfig selects the split policy.
type PolicyConfig struct {
	Kind      string `yaml:"kind"`       // lines, name
	SplitName string `yaml:"split_name"` // name policy: task name that splits
	FanOut    int    `yaml:"fan_out"`    // name policy: number of children
}

type NamingConfig struct {
	Scheme string `yaml:"scheme"` // convention, id
}

type TransformConfig struct {
	Name      string `yaml:"name"` // prefix, identity, upper
	Prefix    string `yaml:"prefix"`
	LineDelay string `yaml:"line_delay"` // simulated per-line work, e.g. "250ms"
}

type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Queue         string `yaml:"queue"`
	ResultQueue   string `yaml:"result_queue"`
	EventsChannel string `yaml:"events_channel"`
}

// PostgresConfig configures the ledger. An empty DSN disables it.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Policy: PolicyConfig{
			Kind:      "lines",
			SplitName: "test-split#1",
			FanOut:    2,
		},
		Naming: NamingConfig{
			Scheme: "convention",
		},
		Transform: TransformConfig{
			Name:      "prefix",
			Prefix:    "out:",
			LineDelay: "0s",
		},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			Queue:         "docworker:queue:pending",
			ResultQueue:   "docworker:queue:results",
			EventsChannel: "docworker:events:invocations",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Worker: WorkerConfig{
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCWORKER_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("DOCWORKER_POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("DOCWORKER_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("DOCWORKER_POLICY"); v != "" {
		c.Policy.Kind = v
	}
	if v := os.Getenv("DOCWORKER_NAMING"); v != "" {
		c.Naming.Scheme = v
	}
	if v := os.Getenv("DOCWORKER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCWORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Worker.Concurrency = n
		}
	}
}

// Validate checks values that cannot be caught by YAML decoding.
func (c *Config) Validate() error {
	switch c.Policy.Kind {
	case "lines":
	case "name":
		if c.Policy.SplitName == "" {
			return fmt.Errorf("policy.split_name is required for the name policy")
		}
		if c.Policy.FanOut < 2 {
			return fmt.Errorf("policy.fan_out must be at least 2, got %d", c.Policy.FanOut)
		}
	default:
		return fmt.Errorf("unknown policy.kind %q", c.Policy.Kind)
	}

	switch c.Naming.Scheme {
	case "convention", "id":
	default:
		return fmt.Errorf("unknown naming.scheme %q", c.Naming.Scheme)
	}

	switch c.Transform.Name {
	case "prefix", "identity", "upper":
	default:
		return fmt.Errorf("unknown transform.name %q", c.Transform.Name)
	}
	if _, err := time.ParseDuration(c.Transform.LineDelay); err != nil {
		return fmt.Errorf("invalid transform.line_delay: %w", err)
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker.concurrency must be at least 1, got %d", c.Worker.Concurrency)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// GetLineDelay returns the per-line delay as a duration.
func (c *Config) GetLineDelay() time.Duration {
	d, err := time.ParseDuration(c.Transform.LineDelay)
	if err != nil {
		return 0
	}
	return d
}
