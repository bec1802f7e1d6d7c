package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadWithDefaults(t *testing.T) {
	t.Setenv("TASKBOARD_DATABASE_URL", "postgres://localhost:5432/taskboard")
	t.Setenv("TASKBOARD_AUTH_JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 2, cfg.Jobs.WorkerCount)
	assert.Equal(t, "0 3 * * *", cfg.Sweeper.Schedule)
	assert.Equal(t, "UTC", cfg.Sweeper.Timezone)
	assert.Equal(t, "./data/files", cfg.Storage.Root)
	assert.Equal(t, "postgres://localhost:5432/taskboard", cfg.Database.URL)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("TASKBOARD_DATABASE_URL", "postgres://localhost:5432/taskboard")
	t.Setenv("TASKBOARD_AUTH_JWT_SECRET", testSecret)
	t.Setenv("TASKBOARD_SERVER_PORT", "9090")
	t.Setenv("TASKBOARD_SERVER_LOG_LEVEL", "debug")
	t.Setenv("TASKBOARD_SWEEPER_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "Europe/Berlin", cfg.Sweeper.Timezone)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("TASKBOARD_DATABASE_URL", "")
	t.Setenv("TASKBOARD_AUTH_JWT_SECRET", testSecret)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadRejectsShortJWTSecret(t *testing.T) {
	t.Setenv("TASKBOARD_DATABASE_URL", "postgres://localhost:5432/taskboard")
	t.Setenv("TASKBOARD_AUTH_JWT_SECRET", "too-short")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("TASKBOARD_DATABASE_URL", "postgres://localhost:5432/taskboard")
	t.Setenv("TASKBOARD_AUTH_JWT_SECRET", testSecret)
	t.Setenv("TASKBOARD_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
}
