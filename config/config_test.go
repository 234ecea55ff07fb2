package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://rental@localhost:5432/rental")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, SyncModeHTTP, cfg.SyncMode)
	assert.Equal(t, 5*time.Second, cfg.SyncTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, int32(16), cfg.DBMaxConns)
	assert.True(t, cfg.LegacyFoundStatus)
	assert.False(t, cfg.DBAutoMigrate)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://rental@localhost:5432/rental")
	t.Setenv("SYNC_MODE", "NATS")
	t.Setenv("SYNC_TIMEOUT", "750ms")
	t.Setenv("LEGACY_FOUND_STATUS", "false")
	t.Setenv("DB_MAX_CONNS", "4")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("TIME_ZONE", "Asia/Shanghai")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SyncModeNATS, cfg.SyncMode)
	assert.Equal(t, 750*time.Millisecond, cfg.SyncTimeout)
	assert.False(t, cfg.LegacyFoundStatus)
	assert.Equal(t, int32(4), cfg.DBMaxConns)
	assert.True(t, cfg.DBAutoMigrate)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseURL: "postgres://x",
			TimeZone:    "UTC",
			SyncMode:    SyncModeHTTP,
			SyncBaseURL: "http://fake",
			SyncTimeout: time.Second,
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.SyncMode = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.SyncBaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.SyncMode = SyncModeNone
	cfg.SyncBaseURL = ""
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.SyncTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.TimeZone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}
