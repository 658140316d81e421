package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_PORT", "REPORT_TIMEZONE", "REPORT_CACHE_TTL", "CHECKOUT_MAX_RETRIES",
		"COSTING_IDEMPOTENT", "DB_MAX_CONNS", "OUTBOX_POLL_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "UTC", cfg.ReportTimezone)
	assert.Equal(t, 60*time.Second, cfg.ReportCacheTTL)
	assert.Equal(t, 3, cfg.CheckoutMaxRetries)
	assert.True(t, cfg.CostingIdempotent)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, ":8080", cfg.Address())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REPORT_TIMEZONE", "Asia/Jakarta")
	t.Setenv("COSTING_IDEMPOTENT", "false")
	t.Setenv("CHECKOUT_MAX_RETRIES", "5")
	t.Setenv("REPORT_CACHE_TTL", "not-a-duration")

	cfg := Load()
	assert.Equal(t, "Asia/Jakarta", cfg.ReportTimezone)
	assert.False(t, cfg.CostingIdempotent)
	assert.Equal(t, 5, cfg.CheckoutMaxRetries)
	assert.Equal(t, 60*time.Second, cfg.ReportCacheTTL)
}

func TestValidate(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REPORT_TIMEZONE", "Mars/Olympus")
	t.Setenv("CHECKOUT_MAX_RETRIES", "0")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "REPORT_TIMEZONE")
	assert.Contains(t, err.Error(), "CHECKOUT_MAX_RETRIES")

	t.Setenv("DATABASE_URL", "postgres://localhost/kitchen")
	t.Setenv("REPORT_TIMEZONE", "UTC")
	t.Setenv("CHECKOUT_MAX_RETRIES", "2")
	assert.NoError(t, Load().Validate())
}

func TestValidateAllowsMemoryStoreInDevelopment(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REPORT_TIMEZONE", "")
	t.Setenv("CHECKOUT_MAX_RETRIES", "")
	t.Setenv("DB_MAX_CONNS", "")

	assert.NoError(t, Load().Validate())
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kitchen.env")
	content := "REPORT_TIMEZONE=Europe/Rome\nCHECKOUT_MAX_RETRIES=7\nPUBSUB_TOPIC=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("ENV_FILE", path)
	t.Setenv("REPORT_TIMEZONE", "")
	t.Setenv("CHECKOUT_MAX_RETRIES", "")
	t.Setenv("PUBSUB_TOPIC", "from-process")

	cfg := Load()
	assert.Equal(t, "Europe/Rome", cfg.ReportTimezone)
	assert.Equal(t, 7, cfg.CheckoutMaxRetries)
	assert.Equal(t, "from-process", cfg.PubSubTopic)

	// Read does not export file values into the process env.
	assert.Empty(t, os.Getenv("REPORT_TIMEZONE"))
}

func TestLoadIgnoresMissingDotEnvFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("APP_PORT", "")

	assert.Equal(t, "8080", Load().Port)
}
