package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.App.IsDev())
	assert.Equal(t, "3000", cfg.App.Port)
	assert.False(t, cfg.DB.Configured())
	assert.Equal(t, APLBackendFile, cfg.APL.Backend)
	assert.Equal(t, "order_hash", cfg.Saleor.MetadataKey)
}

func TestLoadRejectsUnknownAPLBackend(t *testing.T) {
	t.Setenv("ORDERHASH_APL", "upstash")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown APL backend")
}

func TestDBConfigured(t *testing.T) {
	t.Setenv("ORDERHASH_DB_DSN", "postgres://localhost:5432/orderhash")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.DB.Configured())
}

func TestAPLRedisSelection(t *testing.T) {
	t.Setenv("ORDERHASH_APL", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.APL.IsRedis())
}
