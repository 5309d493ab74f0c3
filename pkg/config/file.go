package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadWithFile loads environment configuration and overlays any non-zero
// value from the YAML file at path. File values win over environment values.
func LoadWithFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	merge(cfg, &overlay)
	return cfg, nil
}

func merge(base, overlay *Config) {
	if overlay.Port != "" {
		base.Port = overlay.Port
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	if overlay.DatabaseURL != "" {
		base.DatabaseURL = overlay.DatabaseURL
	}
	if overlay.EncryptionKey != "" {
		base.EncryptionKey = overlay.EncryptionKey
	}
	if len(overlay.CORSOrigins) > 0 {
		base.CORSOrigins = overlay.CORSOrigins
	}
	if overlay.AuditLogLimit > 0 {
		base.AuditLogLimit = overlay.AuditLogLimit
	}
	if overlay.RateLimitRPS > 0 {
		base.RateLimitRPS = overlay.RateLimitRPS
	}
	if overlay.RateLimitBurst > 0 {
		base.RateLimitBurst = overlay.RateLimitBurst
	}
	if overlay.RedisAddr != "" {
		base.RedisAddr = overlay.RedisAddr
	}
	if overlay.OTLPEndpoint != "" {
		base.OTLPEndpoint = overlay.OTLPEndpoint
	}
}
