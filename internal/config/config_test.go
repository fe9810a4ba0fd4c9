package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, time.Hour, cfg.JWT.AccessExpiration)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 200, cfg.HTTP.RateLimitRequests)
	assert.True(t, cfg.Payroll.SeedTables)
	assert.Equal(t, 2*time.Hour, cfg.Payroll.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Payroll.SweepInterval)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("PAYROLL_SEED_TABLES", "false")
	t.Setenv("PAYROLL_SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
	assert.False(t, cfg.Payroll.SeedTables)
	assert.Equal(t, 30*time.Minute, cfg.Payroll.SessionTTL)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port", "DB_PORT", "abc"},
		{"seed flag", "PAYROLL_SEED_TABLES", "maybe"},
		{"session ttl", "PAYROLL_SESSION_TTL", "forever"},
		{"rate limit", "RATE_LIMIT_REQUESTS", "0"},
		{"sweep interval", "PAYROLL_SESSION_SWEEP_INTERVAL", "-1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_RequiresSecrets(t *testing.T) {
	cfg := &Config{
		HTTP:    HTTPConfig{RateLimitRequests: 1},
		Payroll: PayrollConfig{SessionTTL: time.Minute, SweepInterval: time.Minute},
	}
	assert.EqualError(t, cfg.Validate(), "DB_PASSWORD is required")

	cfg.Database.Password = "x"
	assert.EqualError(t, cfg.Validate(), "JWT_SECRET_KEY is required")
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Name: "payroll", SSLMode: "disable",
	}}
	assert.Equal(t, "postgres://u:p@db:5432/payroll?sslmode=disable", cfg.DatabaseURL())
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, AppConfig{LogLevel: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelWarn, AppConfig{LogLevel: "WARN"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, AppConfig{LogLevel: "loud"}.SlogLevel())
}
