package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds RiskPulse configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Explain   ExplainConfig   `yaml:"explain"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Store     StoreConfig     `yaml:"store"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // HTTP listen address, e.g. ":8080"
}

type ModelConfig struct {
	ArtifactPath string `yaml:"artifact_path"` // serialized model artifact (JSON)
	EncodersPath string `yaml:"encoders_path"` // column -> class list table (JSON)
}

type ExplainConfig struct {
	Provider       string `yaml:"provider"`    // "anthropic" | "none"
	Model          string `yaml:"model"`       // provider model name
	APIKeyEnv      string `yaml:"api_key_env"` // e.g. "ANTHROPIC_API_KEY"
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type SMTPConfig struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Username          string `yaml:"username"`
	PasswordEnv       string `yaml:"password_env"` // e.g. "SMTP_PASSWORD"
	From              string `yaml:"from"`
	ManufacturerEmail string `yaml:"manufacturer_email"`
}

type StoreConfig struct {
	Path          string `yaml:"path"`           // sqlite file; empty disables persistence
	RetentionDays int    `yaml:"retention_days"` // datasets older than this are pruned
	SweepSchedule string `yaml:"sweep_schedule"` // cron spec for the prune job
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"` // grpc | http
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// ExplainTimeout returns the configured explanation timeout as a duration.
func (c *Config) ExplainTimeout() time.Duration {
	return time.Duration(c.Explain.TimeoutSeconds) * time.Second
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Model.ArtifactPath == "" {
		cfg.Model.ArtifactPath = "risk_model.json"
	}
	if cfg.Model.EncodersPath == "" {
		cfg.Model.EncodersPath = "encoders.json"
	}
	if cfg.Explain.Provider == "" {
		cfg.Explain.Provider = "none"
	}
	if cfg.Explain.APIKeyEnv == "" {
		cfg.Explain.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if cfg.Explain.TimeoutSeconds <= 0 {
		cfg.Explain.TimeoutSeconds = 30
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.PasswordEnv == "" {
		cfg.SMTP.PasswordEnv = "SMTP_PASSWORD"
	}
	if cfg.Store.RetentionDays <= 0 {
		cfg.Store.RetentionDays = 30
	}
	if cfg.Store.SweepSchedule == "" {
		cfg.Store.SweepSchedule = "@daily"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
}
