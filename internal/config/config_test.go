package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5001", cfg.Port)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxResumeBytes)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "@every 1h", cfg.MaintenanceSpec)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("OUTBOX_POLL_INTERVAL", "3s")
	t.Setenv("OUTBOX_SEND_RATE", "0.5")
	t.Setenv("DB_AUTO_MIGRATE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 0.5, cfg.OutboxSendRate)
	assert.False(t, cfg.DBAutoMigrate)
}

func TestValidateRejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("OUTBOX_MAX_ATTEMPTS", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "OUTBOX_MAX_ATTEMPTS")
}
