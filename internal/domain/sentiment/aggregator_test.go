package sentiment

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Label
	}{
		{0.05, LabelPositive},
		{0.9, LabelPositive},
		{-0.05, LabelNegative},
		{-1, LabelNegative},
		{0.0499, LabelNeutral},
		{-0.0499, LabelNeutral},
		{0, LabelNeutral},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %v", tt.score)
	}
}

func TestAggregate(t *testing.T) {
	date := time.Date(2024, 5, 2, 17, 45, 0, 0, time.UTC)

	summary, ok := Aggregate("AAPL", date, []float64{0.5, -0.3, 0.01, 0.05, -0.05})
	require.True(t, ok)

	assert.Equal(t, "AAPL", summary.Symbol)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), summary.Date)
	assert.InDelta(t, 0.042, summary.AvgSentiment, 1e-9)
	assert.Equal(t, 5, summary.PostCount)
	assert.Equal(t, 2, summary.PositiveCount)
	assert.Equal(t, 2, summary.NegativeCount)
	assert.Equal(t, 1, summary.NeutralCount)
}

func TestAggregate_Empty(t *testing.T) {
	_, ok := Aggregate("AAPL", time.Now(), nil)
	assert.False(t, ok)

	_, ok = Aggregate("AAPL", time.Now(), []float64{})
	assert.False(t, ok)
}

func TestAggregate_PartitionHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	spreads := []float64{1, 0.06, 0.051}

	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(50)
		scores := make([]float64, n)
		for j := range scores {
			// cluster around the classification boundaries
			scores[j] = (rng.Float64()*2 - 1) * spreads[j%len(spreads)]
		}

		summary, ok := Aggregate("TSLA", date, scores)
		require.True(t, ok)
		assert.Equal(t, summary.PostCount, summary.PositiveCount+summary.NegativeCount+summary.NeutralCount)
		assert.Equal(t, n, summary.PostCount)
		assert.GreaterOrEqual(t, summary.NeutralCount, 0)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	date := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	scores := []float64{0.12, -0.4, 0.33, 0.0, 0.07}

	first, _ := Aggregate("MSFT", date, scores)
	second, _ := Aggregate("MSFT", date, scores)
	assert.Equal(t, first, second)
}
