package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/testsupport"
	"stockpulse/pkg/errors"
)

func createPrediction(t *testing.T, repo *PredictionRepository, symbol string) *prediction.Prediction {
	t.Helper()

	p := &prediction.Prediction{
		Symbol:             symbol,
		PredictionDate:     day(2024, 6, 10),
		PredictedDirection: prediction.DirectionUp,
		Confidence:         0.61,
		SentimentScore:     0.12,
	}
	require.NoError(t, repo.Upsert(context.Background(), p))
	return p
}

func TestPredictionRepository_UpsertKeepsIdentity(t *testing.T) {
	repo := NewPredictionRepository(newTestTx(t))
	ctx := context.Background()
	symbol := testsupport.UniqueSymbol()

	first := createPrediction(t, repo, symbol)
	require.NotEqual(t, uuid.Nil, first.ID)

	second := &prediction.Prediction{
		Symbol:             symbol,
		PredictionDate:     day(2024, 6, 10),
		PredictedDirection: prediction.DirectionDown,
		Confidence:         0.7,
		SentimentScore:     -0.2,
	}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID, "Re-scoring the same day must keep the row id")

	got, err := repo.GetBySymbolDate(ctx, symbol, day(2024, 6, 10))
	require.NoError(t, err)
	assert.Equal(t, prediction.DirectionDown, got.PredictedDirection)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)
	assert.Nil(t, got.ActualDirection)
}

func TestPredictionRepository_GetByID_NotFound(t *testing.T) {
	repo := NewPredictionRepository(newTestTx(t))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errors.ErrNotFound)

	exists, err := repo.PredictionExists(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPredictionRepository_ListByDate(t *testing.T) {
	repo := NewPredictionRepository(newTestTx(t))
	ctx := context.Background()

	a := createPrediction(t, repo, "ZZ"+testsupport.UniqueSymbol())
	b := createPrediction(t, repo, "AA"+testsupport.UniqueSymbol())

	list, err := repo.ListByDate(ctx, day(2024, 6, 10))
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, a.ID)
	assert.Contains(t, ids, b.ID)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Symbol, list[i].Symbol)
	}

	exists, err := repo.PredictionExists(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}
