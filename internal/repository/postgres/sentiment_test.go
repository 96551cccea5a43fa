package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/testsupport"
	"stockpulse/pkg/errors"
)

func TestSentimentRepository_UpsertOverwrites(t *testing.T) {
	repo := NewSentimentRepository(newTestTx(t))
	ctx := context.Background()
	symbol := testsupport.UniqueSymbol()

	first := &sentiment.Summary{
		Symbol: symbol, Date: day(2024, 5, 2), AvgSentiment: 0.2,
		PostCount: 3, PositiveCount: 2, NegativeCount: 0, NeutralCount: 1,
	}
	require.NoError(t, repo.UpsertSummary(ctx, first))

	second := *first
	second.AvgSentiment = -0.1
	second.PostCount = 4
	second.NegativeCount = 2
	second.PositiveCount = 1
	second.NeutralCount = 1
	require.NoError(t, repo.UpsertSummary(ctx, &second))

	got, err := repo.GetSummary(ctx, symbol, day(2024, 5, 2))
	require.NoError(t, err)
	assert.Equal(t, second, *got)

	list, err := repo.ListSummaries(ctx, symbol, day(2024, 5, 1), day(2024, 5, 3))
	require.NoError(t, err)
	assert.Len(t, list, 1, "Upsert must not create a second row for the key")
}

func TestSentimentRepository_GetSummary_NotFound(t *testing.T) {
	repo := NewSentimentRepository(newTestTx(t))

	_, err := repo.GetSummary(context.Background(), testsupport.UniqueSymbol(), day(2024, 1, 1))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSentimentRepository_ListSummaries_InclusiveAscending(t *testing.T) {
	repo := NewSentimentRepository(newTestTx(t))
	ctx := context.Background()
	symbol := testsupport.UniqueSymbol()

	for _, d := range []int{5, 1, 3, 7} {
		require.NoError(t, repo.UpsertSummary(ctx, &sentiment.Summary{
			Symbol: symbol, Date: day(2024, 3, d), AvgSentiment: float64(d) / 10, PostCount: 1, PositiveCount: 1,
		}))
	}

	list, err := repo.ListSummaries(ctx, symbol, day(2024, 3, 1), day(2024, 3, 5))
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, day(2024, 3, 1), list[0].Date)
	assert.Equal(t, day(2024, 3, 3), list[1].Date)
	assert.Equal(t, day(2024, 3, 5), list[2].Date)
}
