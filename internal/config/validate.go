package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	switch cfg.Explain.Provider {
	case "none", "anthropic":
	default:
		return fmt.Errorf("explain.provider %q not recognized (want none or anthropic)", cfg.Explain.Provider)
	}
	if cfg.Explain.Provider != "none" && strings.TrimSpace(cfg.Explain.APIKeyEnv) == "" {
		return errors.New("explain.api_key_env must be set when a provider is configured")
	}

	if cfg.SMTP.Host != "" {
		if cfg.SMTP.Port <= 0 || cfg.SMTP.Port > 65535 {
			return fmt.Errorf("smtp.port %d out of range", cfg.SMTP.Port)
		}
		if strings.TrimSpace(cfg.SMTP.From) == "" {
			return errors.New("smtp.from must be set when smtp.host is configured")
		}
		if strings.TrimSpace(cfg.SMTP.ManufacturerEmail) == "" {
			return errors.New("smtp.manufacturer_email must be set when smtp.host is configured")
		}
	}

	if cfg.Store.Path != "" && cfg.Store.RetentionDays <= 0 {
		return errors.New("store.retention_days must be positive when the store is enabled")
	}

	if cfg.Telemetry.Enabled {
		if strings.TrimSpace(cfg.Telemetry.Endpoint) == "" {
			return errors.New("telemetry.endpoint must be set when telemetry is enabled")
		}
		switch strings.ToLower(cfg.Telemetry.Protocol) {
		case "grpc", "http":
		default:
			return fmt.Errorf("telemetry.protocol %q not recognized (want grpc or http)", cfg.Telemetry.Protocol)
		}
	}

	return nil
}
