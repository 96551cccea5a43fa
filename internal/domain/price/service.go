package price

import (
	"context"
	"strings"
	"time"

	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// Service validates and serves daily price bars
type Service struct {
	repo    Repository
	symbols []string
	log     *logger.Logger
}

// NewService constructs a price service for the tracked symbols
func NewService(repo Repository, symbols []string) *Service {
	return &Service{
		repo:    repo,
		symbols: symbols,
		log:     logger.Get().With("component", "price_service"),
	}
}

// Save validates and upserts bars. The batch is rejected up front if any bar is invalid.
func (s *Service) Save(ctx context.Context, bars []Bar) error {
	now := time.Now().UTC()
	for i := range bars {
		bars[i].Symbol = strings.ToUpper(strings.TrimSpace(bars[i].Symbol))
		if !bars[i].Date.IsZero() {
			bars[i].Date = calendar.Day(bars[i].Date)
		}
		bars[i].UpdatedAt = now
		if err := bars[i].Validate(); err != nil {
			return errors.Wrapf(err, "bar %d", i)
		}
	}

	for i := range bars {
		if err := s.repo.UpsertBar(ctx, &bars[i]); err != nil {
			return errors.Wrapf(err, "upsert %s %s", bars[i].Symbol, calendar.Format(bars[i].Date))
		}
	}
	s.log.Debugw("Price bars saved", "count", len(bars))
	return nil
}

// Current returns the latest bar for every tracked symbol that has one
func (s *Service) Current(ctx context.Context) ([]Bar, error) {
	out := make([]Bar, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		bar, err := s.repo.LatestBar(ctx, symbol)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "latest bar for %s", symbol)
		}
		out = append(out, *bar)
	}
	return out, nil
}

// History returns the trailing `days` bars for symbol, ascending
func (s *Service) History(ctx context.Context, symbol string, days int, now time.Time) ([]Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "symbol is required")
	}
	from, to := calendar.Window(now, days)
	bars, err := s.repo.ListBars(ctx, symbol, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list bars")
	}
	return bars, nil
}
