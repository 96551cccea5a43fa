package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/domain/vote"
	"stockpulse/pkg/errors"
)

var testDay = time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

func TestSummaryRepository_UpsertOverwrites(t *testing.T) {
	repo := NewStore().Summaries()
	ctx := context.Background()

	require.NoError(t, repo.UpsertSummary(ctx, &sentiment.Summary{Symbol: "AAPL", Date: testDay.Add(3 * time.Hour), AvgSentiment: 0.1, PostCount: 1, NeutralCount: 1}))
	require.NoError(t, repo.UpsertSummary(ctx, &sentiment.Summary{Symbol: "AAPL", Date: testDay, AvgSentiment: 0.4, PostCount: 2, PositiveCount: 2}))

	got, err := repo.GetSummary(ctx, "AAPL", testDay)
	require.NoError(t, err)
	assert.Equal(t, 0.4, got.AvgSentiment)
	assert.Equal(t, 2, got.PostCount)

	list, err := repo.ListSummaries(ctx, "AAPL", testDay, testDay)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetSummary(ctx, "MSFT", testDay)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSummaryRepository_ListAscendingInRange(t *testing.T) {
	repo := NewStore().Summaries()
	ctx := context.Background()

	for _, offset := range []int{5, -1, 2, 0, 9} {
		require.NoError(t, repo.UpsertSummary(ctx, &sentiment.Summary{Symbol: "NVDA", Date: testDay.AddDate(0, 0, offset)}))
	}

	list, err := repo.ListSummaries(ctx, "NVDA", testDay, testDay.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, testDay, list[0].Date)
	assert.Equal(t, testDay.AddDate(0, 0, 2), list[1].Date)
	assert.Equal(t, testDay.AddDate(0, 0, 5), list[2].Date)
}

func TestPostRepository(t *testing.T) {
	repo := NewStore().Posts()
	ctx := context.Background()

	posts := []sentiment.Post{
		{Symbol: "AAPL", SentimentScore: 0.3, PostedAt: testDay.Add(time.Hour)},
		{Symbol: "AAPL", SentimentScore: -0.2, PostedAt: testDay.Add(23 * time.Hour)},
		{Symbol: "AAPL", SentimentScore: 0.9, PostedAt: testDay.Add(25 * time.Hour)},
		{Symbol: "TSLA", SentimentScore: 0.5, PostedAt: testDay.Add(2 * time.Hour)},
	}
	require.NoError(t, repo.SavePosts(ctx, posts))

	scores, err := repo.ScoresForDay(ctx, "AAPL", testDay)
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{0.3, -0.2}, scores)

	recent, err := repo.RecentPosts(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 0.9, recent[0].SentimentScore)

	tsla, err := repo.RecentPosts(ctx, "TSLA", 10)
	require.NoError(t, err)
	assert.Len(t, tsla, 1)
}

func TestPostRepository_SkipsRepeatedID(t *testing.T) {
	repo := NewStore().Posts()
	ctx := context.Background()

	post := sentiment.Post{ID: uuid.New(), Symbol: "AAPL", SentimentScore: 0.5, PostedAt: testDay.Add(time.Hour)}
	require.NoError(t, repo.SavePosts(ctx, []sentiment.Post{post, post}))
	require.NoError(t, repo.SavePosts(ctx, []sentiment.Post{post}))

	scores, err := repo.ScoresForDay(ctx, "AAPL", testDay)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, scores)

	recent, err := repo.RecentPosts(ctx, "AAPL", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestPriceRepository(t *testing.T) {
	repo := NewStore().Prices()
	ctx := context.Background()

	_, err := repo.LatestBar(ctx, "AMD")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	for i, c := range []float64{100, 101, 99} {
		require.NoError(t, repo.UpsertBar(ctx, &price.Bar{Symbol: "AMD", Date: testDay.AddDate(0, 0, i), Close: decimal.NewFromFloat(c)}))
	}
	// same-day close refresh
	require.NoError(t, repo.UpsertBar(ctx, &price.Bar{Symbol: "AMD", Date: testDay.AddDate(0, 0, 2), Close: decimal.NewFromFloat(98)}))

	latest, err := repo.LatestBar(ctx, "AMD")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(98).Equal(latest.Close))

	bars, err := repo.ListBars(ctx, "AMD", testDay, testDay.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Len(t, bars, 3)
}

func TestPredictionRepository_UpsertKeepsIdentity(t *testing.T) {
	repo := NewStore().Predictions()
	ctx := context.Background()

	first := &prediction.Prediction{ID: uuid.New(), Symbol: "META", PredictionDate: testDay, PredictedDirection: prediction.DirectionUp, Confidence: 0.6}
	require.NoError(t, repo.Upsert(ctx, first))
	firstID := first.ID

	second := &prediction.Prediction{ID: uuid.New(), Symbol: "META", PredictionDate: testDay, PredictedDirection: prediction.DirectionDown, Confidence: 0.7}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, firstID, second.ID)

	list, err := repo.ListByDate(ctx, testDay)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, prediction.DirectionDown, list[0].PredictedDirection)

	exists, err := repo.PredictionExists(ctx, firstID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.PredictionExists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVoteRepository_ConcurrentCasts(t *testing.T) {
	repo := NewStore().Votes()
	ctx := context.Background()
	predictionID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		voter := fmt.Sprintf("10.0.0.%d", i)
		go func() {
			defer wg.Done()
			_, _ = repo.Upsert(ctx, &vote.Vote{ID: uuid.New(), PredictionID: predictionID, VoterID: voter, VoteType: vote.TypeAgree})
		}()
		go func() {
			defer wg.Done()
			_, _ = repo.Upsert(ctx, &vote.Vote{ID: uuid.New(), PredictionID: predictionID, VoterID: voter, VoteType: vote.TypeAgree})
		}()
	}
	wg.Wait()

	agree, disagree, err := repo.Counts(ctx, predictionID)
	require.NoError(t, err)
	assert.Equal(t, 50, agree)
	assert.Zero(t, disagree)
}

func TestVoteRepository_LastWriteWins(t *testing.T) {
	repo := NewStore().Votes()
	ctx := context.Background()
	predictionID := uuid.New()

	created, err := repo.Upsert(ctx, &vote.Vote{ID: uuid.New(), PredictionID: predictionID, VoterID: "v1", VoteType: vote.TypeAgree})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Upsert(ctx, &vote.Vote{ID: uuid.New(), PredictionID: predictionID, VoterID: "v1", VoteType: vote.TypeDisagree})
	require.NoError(t, err)
	assert.False(t, created)

	agree, disagree, err := repo.Counts(ctx, predictionID)
	require.NoError(t, err)
	assert.Equal(t, 0, agree)
	assert.Equal(t, 1, disagree)
}
