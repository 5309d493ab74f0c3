package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "DATABASE_URL", "ENCRYPTION_KEY", "CORS_ORIGINS", "AUDIT_LOG_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "tenderseal.db", cfg.DatabaseURL)
	assert.Empty(t, cfg.EncryptionKey, "missing secret is left empty for the crypto fallback")
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 1000, cfg.AuditLogLimit)
	assert.Equal(t, 20, cfg.RateLimitRPS)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://tender@localhost/tenderseal")
	t.Setenv("ENCRYPTION_KEY", "prod-secret")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AUDIT_LOG_LIMIT", "250")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres://tender@localhost/tenderseal", cfg.DatabaseURL)
	assert.Equal(t, "prod-secret", cfg.EncryptionKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 250, cfg.AuditLogLimit)
}

func TestLoad_IgnoresMalformedInts(t *testing.T) {
	t.Setenv("AUDIT_LOG_LIMIT", "not-a-number")
	t.Setenv("RATE_LIMIT_RPS", "-5")

	cfg := Load()

	assert.Equal(t, 1000, cfg.AuditLogLimit)
	assert.Equal(t, 20, cfg.RateLimitRPS)
}

func TestLoadWithFile_OverlayWins(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENCRYPTION_KEY", "")

	path := filepath.Join(t.TempDir(), "tenderseal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: \"7777\"\nencryption_key: file-secret\nrate_limit_rps: 5\n"), 0o600))

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "7777", cfg.Port, "file values win over environment values")
	assert.Equal(t, "file-secret", cfg.EncryptionKey)
	assert.Equal(t, 5, cfg.RateLimitRPS)
	assert.Equal(t, "INFO", cfg.LogLevel, "unset file fields keep environment defaults")
}

func TestLoadWithFile_MissingFile(t *testing.T) {
	_, err := LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
