package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stockpulse/internal/testsupport"
)

// newTestTx opens a rolled-back transaction with the schema applied
func newTestTx(t *testing.T) DBTX {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	helper := testsupport.NewTestPostgres(t)
	tx := helper.Tx()
	require.NoError(t, Migrate(context.Background(), tx))
	return tx
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
