package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/testsupport"
	"stockpulse/pkg/errors"
)

func TestClient_GetMissingKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testsupport.NewRedisClient(t)

	var dest map[string]int
	err := client.Get(context.Background(), "analytics:summary:missing", &dest)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestClient_SetGetRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testsupport.NewRedisClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", map[string]int{"AAPL": 3}, time.Minute))

	var got map[string]int
	require.NoError(t, client.Get(ctx, "k", &got))
	assert.Equal(t, 3, got["AAPL"])
}

func TestClient_LockIsExclusive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := testsupport.NewRedisClient(t)
	ctx := context.Background()

	ok, err := client.AcquireLock(ctx, "generate", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.AcquireLock(ctx, "generate", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "Second holder must not acquire the lock")

	require.NoError(t, client.ReleaseLock(ctx, "generate"))

	ok, err = client.AcquireLock(ctx, "generate", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
