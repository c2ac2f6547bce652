// Package main provides the CoreWatch server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from a Go duration
// string like "30s" or "1h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Database  DatabaseConfig  `yaml:"database"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Insight   InsightConfig   `yaml:"insight"`
	Scenarios ScenarioConfig  `yaml:"scenarios"`
	Retention RetentionConfig `yaml:"retention"`
	Verbose   bool            `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	HTTPAddress    string    `yaml:"http_address"`    // API listen address (default: :8080)
	MetricsAddress string    `yaml:"metrics_address"` // Prometheus listen address (default: :9090)
	TLS            TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS settings for the API server.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// AuthConfig contains operator authentication settings. The JWT secret
// comes from the COREWATCH_JWT_SECRET environment variable, never from
// the config file.
type AuthConfig struct {
	OperatorUsername     string   `yaml:"operator_username"`
	OperatorPasswordHash string   `yaml:"operator_password_hash"` // bcrypt hash
	TokenTTL             Duration `yaml:"token_ttl"`
	RateLimitPerIP       int      `yaml:"rate_limit_per_ip"`
	RateLimitPerToken    int      `yaml:"rate_limit_per_token"`
	LockoutThreshold     int      `yaml:"lockout_threshold"`
	LockoutDuration      Duration `yaml:"lockout_duration"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TelemetryConfig contains sample generation settings.
type TelemetryConfig struct {
	SensorsFile       string   `yaml:"sensors_file"`
	SampleInterval    Duration `yaml:"sample_interval"`
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`
	WatchSensorsFile  bool     `yaml:"watch_sensors_file"`
}

// InsightConfig contains derived-insight scheduler settings.
type InsightConfig struct {
	Interval        Duration     `yaml:"interval"`
	Probability     float64      `yaml:"probability"`
	Timeout         Duration     `yaml:"timeout"`
	ConfidenceFloor int          `yaml:"confidence_floor"`
	Ollama          OllamaConfig `yaml:"ollama"`
}

// OllamaConfig points the analyzer at a local Ollama server. Disabled
// means every insight uses locally generated fallback content.
type OllamaConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// ScenarioConfig contains incident drill settings.
type ScenarioConfig struct {
	File string `yaml:"file"` // empty disables scenarios
}

// RetentionConfig contains history pruning settings.
type RetentionConfig struct {
	Interval          Duration `yaml:"interval"`
	ReadingAge        Duration `yaml:"reading_age"`
	RecommendationAge Duration `yaml:"recommendation_age"`
	SystemLogAge      Duration `yaml:"system_log_age"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Auth.OperatorUsername == "" {
		c.Auth.OperatorUsername = "operator"
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = Duration(12 * time.Hour)
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/corewatch.db"
	}
	if c.Telemetry.SensorsFile == "" {
		c.Telemetry.SensorsFile = "configs/sensors.yaml"
	}
	if c.Telemetry.SampleInterval == 0 {
		c.Telemetry.SampleInterval = Duration(2 * time.Second)
	}
	if c.Telemetry.HeartbeatInterval == 0 {
		c.Telemetry.HeartbeatInterval = Duration(time.Minute)
	}
	if c.Insight.Interval == 0 {
		c.Insight.Interval = Duration(30 * time.Second)
	}
	if c.Insight.Probability == 0 {
		c.Insight.Probability = 0.4
	}
	if c.Insight.Timeout == 0 {
		c.Insight.Timeout = Duration(10 * time.Second)
	}
	if c.Insight.ConfidenceFloor == 0 {
		c.Insight.ConfidenceFloor = 70
	}
	if c.Retention.Interval == 0 {
		c.Retention.Interval = Duration(time.Hour)
	}
	if c.Retention.ReadingAge == 0 {
		c.Retention.ReadingAge = Duration(24 * time.Hour)
	}
	if c.Retention.RecommendationAge == 0 {
		c.Retention.RecommendationAge = Duration(7 * 24 * time.Hour)
	}
	if c.Retention.SystemLogAge == 0 {
		c.Retention.SystemLogAge = Duration(7 * 24 * time.Hour)
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Auth.OperatorPasswordHash == "" {
		return fmt.Errorf("auth.operator_password_hash is required")
	}
	if c.Insight.Probability < 0 || c.Insight.Probability > 1 {
		return fmt.Errorf("insight.probability must be between 0 and 1")
	}
	if c.Insight.Ollama.Enabled && c.Insight.Ollama.Model == "" {
		return fmt.Errorf("insight.ollama.model is required when ollama is enabled")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls.key_file is required when TLS is enabled")
		}
	}
	return nil
}
