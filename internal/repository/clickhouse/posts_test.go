package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/testsupport"
)

func TestPostRepository_SaveAndRead(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	helper := testsupport.NewClickHouseTestHelper(t)
	repo := NewPostRepository(helper.Client().Conn(), helper.TempTableName(t, "posts_test"))
	ctx := context.Background()

	require.NoError(t, repo.EnsureSchema(ctx))

	posts := testsupport.NewPostFixture().
		WithSymbol("AAPL").
		WithPostedAt(time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)).
		BuildScores(0.5, -0.3, 0.01)
	other := testsupport.NewPostFixture().
		WithSymbol("TSLA").
		WithPostedAt(time.Date(2024, 5, 2, 11, 0, 0, 0, time.UTC)).
		BuildScores(0.9)

	require.NoError(t, repo.SavePosts(ctx, append(posts, other...)))

	t.Run("ScoresForDay", func(t *testing.T) {
		scores, err := repo.ScoresForDay(ctx, "AAPL", time.Date(2024, 5, 2, 23, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.ElementsMatch(t, []float64{0.5, -0.3, 0.01}, scores)

		scores, err = repo.ScoresForDay(ctx, "AAPL", time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, scores)
	})

	t.Run("RecentPosts", func(t *testing.T) {
		recent, err := repo.RecentPosts(ctx, "", 10)
		require.NoError(t, err)
		require.Len(t, recent, 4)
		assert.Equal(t, "TSLA", recent[0].Symbol)

		recent, err = repo.RecentPosts(ctx, "AAPL", 1)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, posts[2].ID, recent[0].ID)
	})
}
