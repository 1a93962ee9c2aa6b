package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"CREDIT_APP_NAME",
	"CREDIT_APP_ENV",
	"CREDIT_APP_PORT",
	"CREDIT_DATABASE_DRIVER",
	"CREDIT_DATABASE_HOST",
	"CREDIT_DATABASE_PORT",
	"CREDIT_DATABASE_USER",
	"CREDIT_DATABASE_PASSWORD",
	"CREDIT_DATABASE_DBNAME",
	"CREDIT_DATABASE_SSLMODE",
	"CREDIT_DATABASE_MAX_OPEN_CONNS",
	"CREDIT_DATABASE_MAX_IDLE_CONNS",
	"CREDIT_EVENT_IDEMPOTENCY_ENABLED",
	"CREDIT_EVENT_IDEMPOTENCY_TTL",
	"CREDIT_EVENT_USE_REDIS",
	"CREDIT_CREDIT_DEFAULT_CURRENCY",
	"CREDIT_CREDIT_DEFAULT_HOLD_THRESHOLD_PERCENT",
	"CREDIT_CREDIT_APPROACHING_LIMIT_PERCENT",
	"CREDIT_CREDIT_MAX_RETRIES",
}

// clearEnv blanks every key the tests touch; viper treats empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "credit-core", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "credit", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)

		assert.True(t, cfg.Event.IdempotencyEnabled)
		assert.False(t, cfg.Event.UseRedis)
		assert.Equal(t, 24*time.Hour, cfg.Event.IdempotencyTTL)

		assert.Equal(t, "USD", cfg.Credit.DefaultCurrency)
		assert.Equal(t, 90, cfg.Credit.DefaultHoldThresholdPercent)
		assert.Equal(t, 10, cfg.Credit.ApproachingLimitPercent)
		assert.Equal(t, 3, cfg.Credit.MaxRetries)
	})

	t.Run("loads values from environment variables with CREDIT prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CREDIT_APP_NAME", "test-app")
		t.Setenv("CREDIT_APP_PORT", "9000")
		t.Setenv("CREDIT_DATABASE_HOST", "testdb.local")
		t.Setenv("CREDIT_DATABASE_PORT", "5433")
		t.Setenv("CREDIT_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("CREDIT_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("CREDIT_EVENT_USE_REDIS", "true")
		t.Setenv("CREDIT_EVENT_IDEMPOTENCY_TTL", "2h")
		t.Setenv("CREDIT_CREDIT_DEFAULT_CURRENCY", "EUR")
		t.Setenv("CREDIT_CREDIT_DEFAULT_HOLD_THRESHOLD_PERCENT", "75")
		t.Setenv("CREDIT_CREDIT_MAX_RETRIES", "5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Event.UseRedis)
		assert.Equal(t, 2*time.Hour, cfg.Event.IdempotencyTTL)
		assert.Equal(t, "EUR", cfg.Credit.DefaultCurrency)
		assert.Equal(t, 75, cfg.Credit.DefaultHoldThresholdPercent)
		assert.Equal(t, 5, cfg.Credit.MaxRetries)
	})

	t.Run("idempotency can be switched off", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CREDIT_EVENT_IDEMPOTENCY_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)
		assert.False(t, cfg.Event.IdempotencyEnabled)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CREDIT_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("CREDIT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CREDIT_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects unsupported default currency", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CREDIT_CREDIT_DEFAULT_CURRENCY", "XYZ")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "credit.default_currency")
	})

	t.Run("rejects hold threshold above 100", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CREDIT_CREDIT_DEFAULT_HOLD_THRESHOLD_PERCENT", "120")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "default_hold_threshold_percent")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CREDIT_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CREDIT_APP_ENV", "production")
		t.Setenv("CREDIT_DATABASE_PASSWORD", "secure-password")
		t.Setenv("CREDIT_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CREDIT_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CREDIT_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("CREDIT_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be postgres in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid postgres DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})

	t.Run("sqlite DSN is the file path", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: "sqlite", Path: "file::memory:?cache=shared"}
		assert.Equal(t, "file::memory:?cache=shared", cfg.DSN())
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.local", Port: 6380}
	assert.Equal(t, "redis.local:6380", cfg.Addr())
}
