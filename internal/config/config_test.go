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
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOCAL_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Minute, cfg.ReminderInterval)
	assert.Equal(t, 30, cfg.ReminderMaxAttempts)
	assert.Equal(t, "notes.db", cfg.SQLitePath)
	assert.Equal(t, time.UTC, cfg.LocalTimezone)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memobot.yaml")
	content := []byte(`
port: "9090"
local_timezone: Europe/Moscow
reminder_interval: 30s
reminder_max_attempts: 5
session_ttl: 2h
redis_url: redis://localhost:6379/0
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REMINDER_MAX_ATTEMPTS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReminderInterval)
	assert.Equal(t, 7, cfg.ReminderMaxAttempts)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "Europe/Moscow", cfg.LocalTimezone.String())
}

func TestLoadRejectsSignatureWithoutURL(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TWILIO_VALIDATE_SIGNATURE", "true")
	t.Setenv("PUBLIC_WEBHOOK_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestParseEnvFallbacks(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_BOOL", "maybe")
	t.Setenv("SOME_DURATION", "soon")

	assert.Equal(t, 3, ParseIntEnv("SOME_INT", 3))
	assert.True(t, ParseBoolEnv("SOME_BOOL", true))
	assert.Equal(t, time.Second, ParseDurationEnv("SOME_DURATION", time.Second))
}
