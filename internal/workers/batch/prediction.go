package batch

import (
	"context"
	"time"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/workers"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

// Generator produces predictions for every tracked symbol
type Generator interface {
	GenerateAll(ctx context.Context, date time.Time) prediction.GenerateResult
}

// PredictionWorker periodically regenerates today's predictions
type PredictionWorker struct {
	*workers.BaseWorker
	generator Generator
	locker    Locker
	lockTTL   time.Duration
	now       func() time.Time
}

// NewPredictionWorker creates the prediction worker. locker may be nil.
func NewPredictionWorker(generator Generator, locker Locker, lockTTL, interval time.Duration, enabled bool) *PredictionWorker {
	return &PredictionWorker{
		BaseWorker: workers.NewBaseWorker("prediction_generation", interval, enabled),
		generator:  generator,
		locker:     locker,
		lockTTL:    lockTTL,
		now:        time.Now,
	}
}

// Run generates today's prediction for each symbol with sentiment history
func (w *PredictionWorker) Run(ctx context.Context) error {
	today := calendar.Day(w.now())
	key := "predict:" + calendar.Format(today)

	err := withLock(ctx, w.locker, key, w.lockTTL, w.Log(), func(ctx context.Context) error {
		result := w.generator.GenerateAll(ctx, today)

		var up, down int
		for _, p := range result.Predictions {
			if p.PredictedDirection == prediction.DirectionUp {
				up++
			} else {
				down++
			}
		}

		w.Log().Infow("Prediction generation complete",
			"date", calendar.Format(today),
			"generated", len(result.Predictions),
			"up", up,
			"down", down,
			"skipped", len(result.Skipped),
		)
		return nil
	})
	if errors.Is(err, errors.ErrLockHeld) {
		w.Log().Debugw("Prediction generation already running elsewhere", "key", key)
		return nil
	}
	return err
}
