package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	setSecrets := func(t *testing.T) {
		t.Setenv("JWT_ACCESS_SECRET", "access_secret")
		t.Setenv("JWT_REFRESH_SECRET", "refresh_secret")
	}

	t.Run("defaults", func(t *testing.T) {
		setSecrets(t)

		cfg, err := Parse()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.AppEnv)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, 7*24*time.Hour, cfg.AccessTokenTTL)
		assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("overrides", func(t *testing.T) {
		setSecrets(t)
		t.Setenv("APP_ENV", "production")
		t.Setenv("APP_PORT", "9090")
		t.Setenv("JWT_ACCESS_TTL_HOURS", "1")
		t.Setenv("BCRYPT_COST", "10")
		t.Setenv("LOG_DEV", "1")

		cfg, err := Parse()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.AppPort)
		assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
		assert.Equal(t, 10, cfg.BcryptCost)
		assert.True(t, cfg.LogDev)
		assert.True(t, cfg.IsProduction())
	})

	t.Run("invalid integer falls back to default", func(t *testing.T) {
		setSecrets(t)
		t.Setenv("RATE_LIMIT_MAX", "lots")

		cfg, err := Parse()
		require.NoError(t, err)
		assert.Equal(t, 100, cfg.RateLimitMax)
	})

	t.Run("bcrypt cost is clamped", func(t *testing.T) {
		setSecrets(t)
		t.Setenv("BCRYPT_COST", "1")

		cfg, err := Parse()
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.BcryptCost)
	})

	t.Run("missing secrets", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_SECRET", "")
		t.Setenv("JWT_REFRESH_SECRET", "")

		_, err := Parse()
		assert.Error(t, err)
	})

	t.Run("identical secrets", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_SECRET", "same")
		t.Setenv("JWT_REFRESH_SECRET", "same")

		_, err := Parse()
		assert.ErrorContains(t, err, "must differ")
	})
}
