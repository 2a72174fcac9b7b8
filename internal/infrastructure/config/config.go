package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// FileEnv names the environment variable pointing at an optional YAML file
const FileEnv = "PORTBRIDGE_CONFIG"

var validate = validator.New()

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Host      HostConfig      `yaml:"host"`
	Messaging MessagingConfig `yaml:"messaging"`
	Worker    WorkerConfig    `yaml:"worker"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" yaml:"port" validate:"required,numeric"`
	Host            string        `envconfig:"HOST" yaml:"host"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" validate:"gt=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second" validate:"gt=0"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" validate:"gt=0"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled"`
}

// HostConfig holds native port host limits.
type HostConfig struct {
	MaxQueueDepth int `envconfig:"HOST_MAX_QUEUE" yaml:"max_queue_depth" validate:"gt=0"`
}

// MessagingConfig holds message encoding settings.
type MessagingConfig struct {
	CompressThreshold int `envconfig:"MESSAGING_COMPRESS_THRESHOLD" yaml:"compress_threshold" validate:"gte=0"`
}

// WorkerConfig holds script worker settings.
type WorkerConfig struct {
	PoolSize       int           `envconfig:"WORKER_POOL_SIZE" yaml:"pool_size" validate:"gt=0"`
	Timeout        time.Duration `envconfig:"WORKER_TIMEOUT" yaml:"timeout" validate:"gt=0"`
	AcquireTimeout time.Duration `envconfig:"WORKER_ACQUIRE_TIMEOUT" yaml:"acquire_timeout" validate:"gt=0"`
	MaxPorts       int           `envconfig:"WORKER_MAX_PORTS" yaml:"max_ports" validate:"gte=0"`
	EnableConsole  bool          `envconfig:"WORKER_CONSOLE" yaml:"enable_console"`
}

// Load builds configuration from defaults, then the YAML file named by
// PORTBRIDGE_CONFIG if set, then environment variables.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		if err := MergeYAML(cfg, f); err != nil {
			return nil, err
		}
	}

	// Fields have no envconfig defaults, so unset variables keep file values
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeYAML overlays YAML onto cfg. ${VAR} and ${VAR:-default} references
// are expanded from the environment first; a missing variable without a
// default is an error.
func MergeYAML(cfg *Config, src io.Reader) error {
	raw, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var missing []string
	expanded := os.Expand(string(raw), func(key string) string {
		if i := strings.Index(key, ":-"); i != -1 {
			if val, ok := os.LookupEnv(key[:i]); ok {
				return val
			}
			return key[i+2:]
		}
		val, ok := os.LookupEnv(key)
		if !ok {
			missing = append(missing, key)
		}
		return val
	})
	if len(missing) > 0 {
		return fmt.Errorf("config file expects environment variables %v", missing)
	}

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadOrDefault loads configuration or returns default on any error.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Host: HostConfig{
			MaxQueueDepth: 1024,
		},
		Messaging: MessagingConfig{
			CompressThreshold: 4096,
		},
		Worker: WorkerConfig{
			PoolSize:       4,
			Timeout:        5 * time.Second,
			AcquireTimeout: 5 * time.Second,
			MaxPorts:       64,
			EnableConsole:  true,
		},
	}
}
