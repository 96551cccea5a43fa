package batch

import (
	"context"
	"time"

	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/workers"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

// Aggregator recomputes daily summaries for every tracked symbol
type Aggregator interface {
	AggregateAll(ctx context.Context, date time.Time) sentiment.AggregateResult
}

// AggregationWorker periodically recomputes today's sentiment summaries
type AggregationWorker struct {
	*workers.BaseWorker
	aggregator Aggregator
	locker     Locker
	lockTTL    time.Duration
	now        func() time.Time
}

// NewAggregationWorker creates the aggregation worker. locker may be nil.
func NewAggregationWorker(aggregator Aggregator, locker Locker, lockTTL, interval time.Duration, enabled bool) *AggregationWorker {
	return &AggregationWorker{
		BaseWorker: workers.NewBaseWorker("sentiment_aggregation", interval, enabled),
		aggregator: aggregator,
		locker:     locker,
		lockTTL:    lockTTL,
		now:        time.Now,
	}
}

// Run aggregates today's posts for all symbols
func (w *AggregationWorker) Run(ctx context.Context) error {
	today := calendar.Day(w.now())
	key := "aggregate:" + calendar.Format(today)

	err := withLock(ctx, w.locker, key, w.lockTTL, w.Log(), func(ctx context.Context) error {
		result := w.aggregator.AggregateAll(ctx, today)

		var failed int
		for _, err := range result.Skipped {
			if !errors.Is(err, errors.ErrNoData) {
				failed++
			}
		}

		w.Log().Infow("Sentiment aggregation complete",
			"date", calendar.Format(today),
			"aggregated", len(result.Summaries),
			"skipped", len(result.Skipped),
			"failed", failed,
		)
		return nil
	})
	if errors.Is(err, errors.ErrLockHeld) {
		w.Log().Debugw("Aggregation already running elsewhere", "key", key)
		return nil
	}
	return err
}
