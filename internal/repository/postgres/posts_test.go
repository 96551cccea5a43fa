package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/testsupport"
)

func TestPostRepository_ScoresForDay(t *testing.T) {
	repo := NewPostRepository(newTestTx(t))
	ctx := context.Background()
	symbol := testsupport.UniqueSymbol()

	inDay := testsupport.NewPostFixture().
		WithSymbol(symbol).
		WithPostedAt(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)).
		BuildScores(0.5, -0.3)
	nextDay := testsupport.NewPostFixture().
		WithSymbol(symbol).
		WithPostedAt(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)).
		BuildScores(0.9)

	require.NoError(t, repo.SavePosts(ctx, append(inDay, nextDay...)))

	scores, err := repo.ScoresForDay(ctx, symbol, time.Date(2024, 5, 2, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{0.5, -0.3}, scores)
}

func TestPostRepository_SavePosts_IgnoresRedelivery(t *testing.T) {
	repo := NewPostRepository(newTestTx(t))
	ctx := context.Background()
	symbol := testsupport.UniqueSymbol()

	posts := testsupport.NewPostFixture().WithSymbol(symbol).BuildScores(0.1, 0.2)
	require.NoError(t, repo.SavePosts(ctx, posts))
	require.NoError(t, repo.SavePosts(ctx, posts))

	recent, err := repo.RecentPosts(ctx, symbol, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestPostRepository_RecentPosts_NewestFirst(t *testing.T) {
	repo := NewPostRepository(newTestTx(t))
	ctx := context.Background()
	symbol := testsupport.UniqueSymbol()

	posts := testsupport.NewPostFixture().WithSymbol(symbol).BuildScores(0.1, 0.2, 0.3)
	require.NoError(t, repo.SavePosts(ctx, posts))

	recent, err := repo.RecentPosts(ctx, symbol, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, posts[2].ID, recent[0].ID)
	assert.Equal(t, posts[1].ID, recent[1].ID)
}
