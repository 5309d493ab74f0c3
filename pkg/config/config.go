// Package config resolves server configuration from the environment, with an
// optional YAML file overlay.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds server configuration.
type Config struct {
	Port           string   `yaml:"port"`
	LogLevel       string   `yaml:"log_level"`
	DatabaseURL    string   `yaml:"database_url"`
	EncryptionKey  string   `yaml:"encryption_key"`
	CORSOrigins    []string `yaml:"cors_origins"`
	AuditLogLimit  int      `yaml:"audit_log_limit"`
	RateLimitRPS   int      `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
	RedisAddr      string   `yaml:"redis_addr"`
	OTLPEndpoint   string   `yaml:"otlp_endpoint"`
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		// Default to a local SQLite file; postgres:// URLs select lib/pq.
		dbURL = "tenderseal.db"
	}

	origins := strings.Split(envDefault("CORS_ORIGINS", "*"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:        port,
		LogLevel:    logLevel,
		DatabaseURL: dbURL,
		// Empty means the crypto layer falls back to the flagged dev key.
		EncryptionKey:  os.Getenv("ENCRYPTION_KEY"),
		CORSOrigins:    origins,
		AuditLogLimit:  envInt("AUDIT_LOG_LIMIT", 1000),
		RateLimitRPS:   envInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: envInt("RATE_LIMIT_BURST", 40),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		OTLPEndpoint:   os.Getenv("OTLP_ENDPOINT"),
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
