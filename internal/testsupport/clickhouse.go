package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"stockpulse/internal/adapters/clickhouse"
)

// ClickHouseTestHelper manages cleanup for ClickHouse integration tests.
type ClickHouseTestHelper struct {
	client *clickhouse.Client
}

// NewClickHouseTestHelper connects using CLICKHOUSE_* variables, skipping when unset.
func NewClickHouseTestHelper(t *testing.T) *ClickHouseTestHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := clickhouse.NewClient(ctx, LoadClickHouseConfig(t))
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })
	return &ClickHouseTestHelper{client: client}
}

// TempTableName returns a unique table name and drops the table when the test ends.
func (h *ClickHouseTestHelper) TempTableName(t *testing.T, prefix string) string {
	t.Helper()

	table := fmt.Sprintf("%s_%d", prefix, NextSequence())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = h.client.Conn().Exec(ctx, "DROP TABLE IF EXISTS "+table)
	})
	return table
}

// Client exposes the raw ClickHouse client for queries.
func (h *ClickHouseTestHelper) Client() *clickhouse.Client {
	return h.client
}
