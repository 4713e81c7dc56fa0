package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8084, cfg.Server.Port)
	assert.Equal(t, "stream:sourcing_triads", cfg.Redis.Stream)
	assert.Equal(t, "https://realtime.oxylabs.io/v1/queries", cfg.Backend.URL)
	assert.Equal(t, 120*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 3, cfg.Backend.MaxRetries)
	assert.Equal(t, 50, cfg.Sourcing.MaxProducts)
	assert.Equal(t, 3.0, cfg.Sourcing.Multiplier)
	assert.Equal(t, 1, cfg.Sourcing.MinReviews)
	assert.True(t, cfg.Sourcing.RequireVerified)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SOURCING_MULTIPLIER", "2.5")
	t.Setenv("SOURCING_REQUIRE_VERIFIED", "false")
	t.Setenv("BACKEND_RATE_LIMIT", "500ms")
	t.Setenv("SOURCING_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Sourcing.Multiplier)
	assert.False(t, cfg.Sourcing.RequireVerified)
	assert.Equal(t, 500*time.Millisecond, cfg.Backend.RateLimit)
	assert.Equal(t, 4, cfg.Sourcing.Workers, "unparsable values fall back to the default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"multiplier", func(c *Config) { c.Sourcing.Multiplier = 0 }, "SOURCING_MULTIPLIER"},
		{"max products", func(c *Config) { c.Sourcing.MaxProducts = 0 }, "SOURCING_MAX_PRODUCTS"},
		{"workers", func(c *Config) { c.Sourcing.Workers = 0 }, "SOURCING_WORKERS"},
		{"min reviews", func(c *Config) { c.Sourcing.MinReviews = -1 }, "SOURCING_MIN_REVIEWS"},
		{"fx rate", func(c *Config) { c.Sourcing.FXRate = -2 }, "SOURCING_FX_RATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("SOURCING_MAX_PRODUCTS", "-5")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateBackend(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Backend.Username, cfg.Backend.Password = "", ""
	assert.ErrorIs(t, cfg.ValidateBackend(), ErrMissingCredentials)

	cfg.Backend.Username, cfg.Backend.Password = "user", "pass"
	assert.NoError(t, cfg.ValidateBackend())
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5433, Name: "n", SSLMode: "require", MaxConns: 5}
	assert.Equal(t, "postgres://u:p@db:5433/n?sslmode=require&pool_max_conns=5", db.DatabaseURL())
}
