// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Defaults are safe for local
// development except for secrets, which have no default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Fallback  FallbackConfig  `yaml:"fallback"`
	Training  TrainingConfig  `yaml:"training"`
}

type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL            string   `yaml:"url"`
	ConnectRetries int      `yaml:"connect_retries"`
	RetryInterval  Duration `yaml:"retry_interval"`
}

type AuthConfig struct {
	JWTSecret string   `yaml:"jwt_secret"`
	APIKey    string   `yaml:"api_key"`
	TokenTTL  Duration `yaml:"token_ttl"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

type CacheConfig struct {
	TTL Duration `yaml:"ttl"`
}

type FallbackConfig struct {
	Path string `yaml:"path"`
}

type TrainingConfig struct {
	DefaultIterations int `yaml:"default_iterations"`
	MaxIterations     int `yaml:"max_iterations"`
}

// Defaults returns the baseline configuration before file and environment
// overrides.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Database: DatabaseConfig{
			ConnectRetries: 5,
			RetryInterval:  Duration(5 * time.Second),
		},
		Auth: AuthConfig{
			TokenTTL: Duration(24 * time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 20,
			Burst:             5,
		},
		Cache: CacheConfig{
			TTL: Duration(5 * time.Minute),
		},
		Fallback: FallbackConfig{
			Path: "data/iterations.jsonl",
		},
		Training: TrainingConfig{
			DefaultIterations: 3,
			MaxIterations:     20,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file when path is
// non-empty, then environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT secret is required (auth.jwt_secret or JWT_SECRET)")
	}
	if cfg.Auth.APIKey == "" {
		return Config{}, fmt.Errorf("API key is required (auth.api_key or API_KEY)")
	}
	if cfg.Training.DefaultIterations < 1 || cfg.Training.MaxIterations < cfg.Training.DefaultIterations {
		return Config{}, fmt.Errorf("invalid training iteration bounds")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("FALLBACK_PATH"); v != "" {
		cfg.Fallback.Path = v
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.RequestsPerMinute = n
		}
	}
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
