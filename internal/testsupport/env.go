package testsupport

import (
	"os"
	"strconv"
	"testing"

	"stockpulse/internal/adapters/config"
)

// DatabaseConfigs bundles config sections required for integration tests.
type DatabaseConfigs struct {
	Postgres   config.PostgresConfig
	ClickHouse config.ClickHouseConfig
	Redis      config.RedisConfig
}

// LoadDatabaseConfigsFromEnv reads configuration for every backend.
// The test is skipped when any required variable is missing.
func LoadDatabaseConfigsFromEnv(t *testing.T) DatabaseConfigs {
	t.Helper()

	return DatabaseConfigs{
		Postgres:   LoadPostgresConfig(t),
		ClickHouse: LoadClickHouseConfig(t),
		Redis:      LoadRedisConfig(t),
	}
}

// LoadPostgresConfig skips the test unless a postgres instance is configured
func LoadPostgresConfig(t *testing.T) config.PostgresConfig {
	t.Helper()
	requireEnv(t, "POSTGRES_HOST", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB")

	return config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     intValue("POSTGRES_PORT", 5432),
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Database: os.Getenv("POSTGRES_DB"),
		SSLMode:  valueWithDefault("POSTGRES_SSL_MODE", "disable"),
		MaxConns: 10,
	}
}

// LoadClickHouseConfig skips the test unless a clickhouse instance is configured
func LoadClickHouseConfig(t *testing.T) config.ClickHouseConfig {
	t.Helper()
	requireEnv(t, "CLICKHOUSE_HOST", "CLICKHOUSE_DB")

	return config.ClickHouseConfig{
		Host:     os.Getenv("CLICKHOUSE_HOST"),
		Port:     intValue("CLICKHOUSE_PORT", 9000),
		User:     valueWithDefault("CLICKHOUSE_USER", "default"),
		Password: os.Getenv("CLICKHOUSE_PASSWORD"),
		Database: os.Getenv("CLICKHOUSE_DB"),
	}
}

// LoadRedisConfig skips the test unless a redis instance is configured
func LoadRedisConfig(t *testing.T) config.RedisConfig {
	t.Helper()
	requireEnv(t, "REDIS_HOST")

	return config.RedisConfig{
		Enabled:  true,
		Host:     os.Getenv("REDIS_HOST"),
		Port:     intValue("REDIS_PORT", 6379),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       intValue("REDIS_DB", 0),
	}
}

func requireEnv(t *testing.T, keys ...string) {
	t.Helper()

	missing := make([]string, 0)
	for _, key := range keys {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		t.Skipf("integration environment missing, set %v to run", missing)
	}
}

func valueWithDefault(key string, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intValue(key string, fallback int) int {
	if parsed, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return parsed
	}
	return fallback
}
