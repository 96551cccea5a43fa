package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/repository/memory"
	"stockpulse/internal/testsupport"
	"stockpulse/pkg/errors"
)

// memLocker mimics SETNX semantics in memory
type memLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquired []string
	err      error
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	l.acquired = append(l.acquired, key)
	return true, nil
}

func (l *memLocker) ReleaseLock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type countingGenerator struct {
	calls int
}

func (g *countingGenerator) GenerateAll(ctx context.Context, date time.Time) prediction.GenerateResult {
	g.calls++
	return prediction.GenerateResult{Skipped: map[string]error{}}
}

var fixedNow = time.Date(2024, 5, 2, 14, 30, 0, 0, time.UTC)

func TestAggregationWorker_AggregatesToday(t *testing.T) {
	store := memory.NewStore()
	svc := sentiment.NewService(store.Summaries(), store.Posts(), []string{"AAPL", "MSFT"})
	posts := testsupport.NewPostFixture().WithPostedAt(fixedNow.Add(-time.Hour)).BuildScores(0.3, 0.1)
	require.NoError(t, store.Posts().SavePosts(context.Background(), posts))

	locker := newMemLocker()
	w := NewAggregationWorker(svc, locker, time.Minute, time.Minute, true)
	w.now = func() time.Time { return fixedNow }

	require.NoError(t, w.Run(context.Background()))

	summary, err := store.Summaries().GetSummary(context.Background(), "AAPL", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.PostCount)

	assert.Equal(t, []string{"aggregate:2024-05-02"}, locker.acquired)
	assert.Empty(t, locker.held, "Lock must be released after the run")
}

func TestPredictionWorker_SkipsWhenLockHeld(t *testing.T) {
	locker := newMemLocker()
	locker.held["predict:2024-05-02"] = true
	gen := &countingGenerator{}

	w := NewPredictionWorker(gen, locker, time.Minute, time.Minute, true)
	w.now = func() time.Time { return fixedNow }

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, 0, gen.calls)
}

func TestPredictionWorker_NilLocker(t *testing.T) {
	gen := &countingGenerator{}
	w := NewPredictionWorker(gen, nil, time.Minute, time.Minute, true)

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, 1, gen.calls)
}

func TestPredictionWorker_LockError(t *testing.T) {
	locker := newMemLocker()
	locker.err = errors.ErrUnavailable
	gen := &countingGenerator{}

	w := NewPredictionWorker(gen, locker, time.Minute, time.Minute, true)

	err := w.Run(context.Background())
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Equal(t, 0, gen.calls)
}
