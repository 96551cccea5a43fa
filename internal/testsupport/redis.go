package testsupport

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"stockpulse/internal/adapters/redis"
)

// NewRedisClient connects to REDIS_* and flushes the database before and after the test.
func NewRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	cfg := LoadRedisConfig(t)
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	if err := rdb.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis before test: %v", err)
	}

	t.Cleanup(func() {
		_ = rdb.FlushDB(context.Background()).Err()
		_ = rdb.Close()
	})

	return redis.NewFromRedis(rdb)
}
