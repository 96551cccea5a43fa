package memory

import (
	"context"
	"time"

	"stockpulse/internal/domain/price"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

var _ price.Repository = (*PriceRepository)(nil)

// PriceRepository implements price.Repository
type PriceRepository struct {
	s *Store
}

func (r *PriceRepository) UpsertBar(ctx context.Context, bar *price.Bar) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row := *bar
	row.Date = calendar.Day(row.Date)
	r.s.bars[dayKey{row.Symbol, row.Date}] = row
	return nil
}

func (r *PriceRepository) LatestBar(ctx context.Context, symbol string) (*price.Bar, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *price.Bar
	for k, row := range r.s.bars {
		if k.symbol != symbol {
			continue
		}
		if latest == nil || row.Date.After(latest.Date) {
			b := row
			latest = &b
		}
	}
	if latest == nil {
		return nil, errors.ErrNotFound
	}
	return latest, nil
}

func (r *PriceRepository) ListBars(ctx context.Context, symbol string, from, to time.Time) ([]price.Bar, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]price.Bar, 0)
	for k, row := range r.s.bars {
		if k.symbol == symbol && inRange(k.date, from, to) {
			out = append(out, row)
		}
	}
	sortByDate(out, func(b price.Bar) time.Time { return b.Date })
	return out, nil
}
