package analytics

import (
	"context"
	"iter"
	"time"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

const (
	DefaultDays = 30
	MaxDays     = 365
)

// CacheStore is a JSON key/value cache. Get returns errors.ErrNotFound on a miss.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Config for the analytics read side
type Config struct {
	Symbols     []string
	SummaryDays int
	CacheTTL    time.Duration
}

// Service serves correlation, comparison and summary reads. It takes no
// locks; consistency is whatever the underlying store provides.
type Service struct {
	summaries   sentiment.Repository
	prices      price.Repository
	predictions prediction.Repository
	cache       CacheStore
	cfg         Config
	log         *logger.Logger
}

// NewService creates the analytics service. cache may be nil.
func NewService(
	summaries sentiment.Repository,
	prices price.Repository,
	predictions prediction.Repository,
	cache CacheStore,
	cfg Config,
) *Service {
	if cfg.SummaryDays <= 0 {
		cfg.SummaryDays = 7
	}
	return &Service{
		summaries:   summaries,
		prices:      prices,
		predictions: predictions,
		cache:       cache,
		cfg:         cfg,
		log:         logger.Get().With("component", "analytics_service"),
	}
}

// Correlation returns the dates on which symbol has both a sentiment summary
// and a price bar within the trailing window, ascending.
func (s *Service) Correlation(ctx context.Context, symbol string, days int, now time.Time) (iter.Seq[CorrelationPoint], error) {
	symbol = sentiment.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "symbol is required")
	}
	from, to := calendar.Window(now, s.clampDays(days))

	summaries, err := s.summaries.ListSummaries(ctx, symbol, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list summaries")
	}
	bars, err := s.prices.ListBars(ctx, symbol, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list bars")
	}
	return Join(summaries, bars), nil
}

// SymbolSummary is the trailing-window rollup for one symbol
type SymbolSummary struct {
	Symbol       string  `json:"symbol"`
	TotalPosts   int     `json:"total_posts"`
	AvgSentiment float64 `json:"avg_sentiment"`
	Days         int     `json:"days"`
}

// Summary reports total posts and mean daily sentiment per tracked symbol
// over the configured trailing window. Results are cached when a cache is set.
func (s *Service) Summary(ctx context.Context, now time.Time) ([]SymbolSummary, error) {
	key := "analytics:summary:" + calendar.Format(now)
	if s.cache != nil {
		var cached []SymbolSummary
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			s.log.Warnw("Analytics cache read failed", "error", err)
		}
	}

	from, to := calendar.Window(now, s.cfg.SummaryDays)
	out := make([]SymbolSummary, 0, len(s.cfg.Symbols))
	for _, symbol := range s.cfg.Symbols {
		rows, err := s.summaries.ListSummaries(ctx, symbol, from, to)
		if err != nil {
			return nil, errors.Wrapf(err, "list summaries for %s", symbol)
		}
		item := SymbolSummary{Symbol: symbol, Days: s.cfg.SummaryDays}
		var sum float64
		for _, r := range rows {
			item.TotalPosts += r.PostCount
			sum += r.AvgSentiment
		}
		if len(rows) > 0 {
			item.AvgSentiment = sum / float64(len(rows))
		}
		out = append(out, item)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, s.cfg.CacheTTL); err != nil {
			s.log.Warnw("Analytics cache write failed", "error", err)
		}
	}
	return out, nil
}

func (s *Service) clampDays(days int) int {
	if days <= 0 {
		return DefaultDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}
