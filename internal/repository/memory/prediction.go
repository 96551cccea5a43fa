package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/vote"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

var (
	_ prediction.Repository  = (*PredictionRepository)(nil)
	_ vote.PredictionChecker = (*PredictionRepository)(nil)
)

// PredictionRepository implements prediction.Repository
type PredictionRepository struct {
	s *Store
}

func (r *PredictionRepository) Upsert(ctx context.Context, p *prediction.Prediction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := dayKey{p.Symbol, calendar.Day(p.PredictionDate)}
	if existing, ok := r.s.predictions[key]; ok {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
		p.ActualDirection = existing.ActualDirection
	}

	row := *p
	row.PredictionDate = key.date
	r.s.predictions[key] = row
	r.s.predByID[row.ID] = key
	return nil
}

func (r *PredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*prediction.Prediction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	key, ok := r.s.predByID[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	row := r.s.predictions[key]
	return &row, nil
}

func (r *PredictionRepository) GetBySymbolDate(ctx context.Context, symbol string, date time.Time) (*prediction.Prediction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.predictions[dayKey{symbol, calendar.Day(date)}]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &row, nil
}

func (r *PredictionRepository) ListByDate(ctx context.Context, date time.Time) ([]prediction.Prediction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	day := calendar.Day(date)
	out := make([]prediction.Prediction, 0)
	for k, row := range r.s.predictions {
		if k.date.Equal(day) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (r *PredictionRepository) PredictionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.predByID[id]
	return ok, nil
}
