package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadRequiresControlPlaneDSN(t *testing.T) {
	t.Setenv("CONTROL_PLANE_DSN", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONTROL_PLANE_DSN")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONTROL_PLANE_DSN", "host=localhost dbname=control_plane")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "host=localhost dbname=control_plane", cfg.DB.ControlPlaneDSN)
	// The privileged DSN falls back to the control-plane one.
	assert.Equal(t, cfg.DB.ControlPlaneDSN, cfg.DB.AdminDSN)
	assert.Equal(t, 10, cfg.DB.MaxIdleConns)
	assert.Equal(t, 100, cfg.DB.MaxOpenConns)
	assert.Equal(t, 5*time.Second, cfg.DB.DialTimeout)
	assert.Equal(t, 3*time.Second, cfg.DB.ProbeTimeout)
	assert.Equal(t, 60*time.Second, cfg.DB.MigrateTimeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, logger.Warn, cfg.DB.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CONTROL_PLANE_DSN", "host=cp dbname=registry")
	t.Setenv("DB_ADMIN_DSN", "host=cp dbname=postgres user=admin")
	t.Setenv("DB_DIAL_TIMEOUT", "250ms")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ADMIN_API_KEY", "topsecret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "host=cp dbname=postgres user=admin", cfg.DB.AdminDSN)
	assert.Equal(t, 250*time.Millisecond, cfg.DB.DialTimeout)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "topsecret", cfg.Admin.APIKey)
}

func TestLoadIgnoresInvalidNumericValues(t *testing.T) {
	t.Setenv("CONTROL_PLANE_DSN", "host=localhost dbname=control_plane")
	t.Setenv("DB_MAX_IDLE_CONNS", "not-a-number")
	t.Setenv("DB_PROBE_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.DB.MaxIdleConns)
	assert.Equal(t, 3*time.Second, cfg.DB.ProbeTimeout)
}
