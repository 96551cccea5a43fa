package sentiment

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/metrics"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// AggregateResult is the outcome of a batch aggregation run
type AggregateResult struct {
	Summaries []Summary
	Skipped   map[string]error
}

// Service aggregates posts into daily summaries and serves sentiment reads
type Service struct {
	summaries Repository
	posts     PostRepository
	symbols   []string
	log       *logger.Logger
}

// NewService constructs a sentiment service for the tracked symbols
func NewService(summaries Repository, posts PostRepository, symbols []string) *Service {
	return &Service{
		summaries: summaries,
		posts:     posts,
		symbols:   symbols,
		log:       logger.Get().With("component", "sentiment_service"),
	}
}

// Symbols returns the tracked symbol list
func (s *Service) Symbols() []string {
	return s.symbols
}

// AggregateDay recomputes the summary for (symbol, date) from stored posts.
// Returns errors.ErrNoData when there are no posts for the key.
func (s *Service) AggregateDay(ctx context.Context, symbol string, date time.Time) (*Summary, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "symbol is required")
	}
	day := calendar.Day(date)

	scores, err := s.posts.ScoresForDay(ctx, symbol, day)
	if err != nil {
		metrics.SummariesAggregated.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "load post scores")
	}

	summary, ok := Aggregate(symbol, day, scores)
	if !ok {
		metrics.SummariesAggregated.WithLabelValues("no_data").Inc()
		return nil, errors.Wrapf(errors.ErrNoData, "no posts for %s on %s", symbol, calendar.Format(day))
	}

	if err := s.summaries.UpsertSummary(ctx, &summary); err != nil {
		metrics.SummariesAggregated.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "upsert summary")
	}

	metrics.SummariesAggregated.WithLabelValues("success").Inc()
	s.log.Debugw("Sentiment aggregated",
		"symbol", symbol,
		"date", calendar.Format(day),
		"posts", summary.PostCount,
		"avg", summary.AvgSentiment,
	)
	return &summary, nil
}

// AggregateAll aggregates date for every tracked symbol.
// A failing symbol is recorded in Skipped and never aborts the run.
func (s *Service) AggregateAll(ctx context.Context, date time.Time) AggregateResult {
	result := AggregateResult{Skipped: make(map[string]error)}

	for _, symbol := range s.symbols {
		if ctx.Err() != nil {
			result.Skipped[symbol] = ctx.Err()
			continue
		}

		summary, err := s.AggregateDay(errors.WithSymbol(ctx, symbol), symbol, date)
		if err != nil {
			noData := errors.Is(err, errors.ErrNoData)
			metrics.RecordBatchSkip("aggregate", noData)
			if !noData {
				s.log.Warnw("Skipping symbol in aggregation", "symbol", symbol, "error", err)
			}
			result.Skipped[symbol] = err
			continue
		}
		result.Summaries = append(result.Summaries, *summary)
	}

	return result
}

// Ingest stores scored posts and re-aggregates every (symbol, day) they touch
func (s *Service) Ingest(ctx context.Context, posts []Post) ([]Summary, error) {
	if len(posts) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	keys := make(map[Key]struct{})
	for i := range posts {
		p := &posts[i]
		p.Symbol = NormalizeSymbol(p.Symbol)
		if err := validatePost(p); err != nil {
			return nil, err
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		keys[Key{Symbol: p.Symbol, Date: calendar.Day(p.PostedAt)}] = struct{}{}
	}

	if err := s.posts.SavePosts(ctx, posts); err != nil {
		return nil, errors.Wrap(err, "save posts")
	}
	for _, p := range posts {
		metrics.PostsIngested.WithLabelValues(p.Source).Inc()
	}

	ordered := make([]Key, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Symbol != ordered[j].Symbol {
			return ordered[i].Symbol < ordered[j].Symbol
		}
		return ordered[i].Date.Before(ordered[j].Date)
	})

	summaries := make([]Summary, 0, len(ordered))
	for _, k := range ordered {
		summary, err := s.AggregateDay(ctx, k.Symbol, k.Date)
		if err != nil {
			return summaries, errors.Wrapf(err, "aggregate %s %s", k.Symbol, calendar.Format(k.Date))
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// Current returns today's summary per tracked symbol, substituting a zero
// placeholder for symbols with no summary today.
func (s *Service) Current(ctx context.Context, now time.Time) ([]Summary, error) {
	today := calendar.Day(now)
	out := make([]Summary, 0, len(s.symbols))

	for _, symbol := range s.symbols {
		summary, err := s.summaries.GetSummary(ctx, symbol, today)
		switch {
		case errors.Is(err, errors.ErrNotFound):
			out = append(out, Placeholder(symbol, today))
		case err != nil:
			return nil, errors.Wrapf(err, "get summary for %s", symbol)
		default:
			out = append(out, *summary)
		}
	}
	return out, nil
}

// History returns the trailing `days` summaries for symbol, ascending
func (s *Service) History(ctx context.Context, symbol string, days int, now time.Time) ([]Summary, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "symbol is required")
	}
	from, to := calendar.Window(now, days)
	summaries, err := s.summaries.ListSummaries(ctx, symbol, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list summaries")
	}
	return summaries, nil
}

// RecentPosts returns the newest posts, optionally for a single symbol
func (s *Service) RecentPosts(ctx context.Context, symbol string, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	posts, err := s.posts.RecentPosts(ctx, NormalizeSymbol(symbol), limit)
	if err != nil {
		return nil, errors.Wrap(err, "recent posts")
	}
	return posts, nil
}

// NormalizeSymbol upper-cases and trims a ticker
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func validatePost(p *Post) error {
	if p.Symbol == "" {
		return errors.NewValidationError("symbol", "is required", p.Symbol)
	}
	if math.IsNaN(p.SentimentScore) || p.SentimentScore < -1 || p.SentimentScore > 1 {
		return errors.NewValidationError("sentiment_score", "must be within [-1, 1]", p.SentimentScore)
	}
	if p.PostedAt.IsZero() {
		return errors.NewValidationError("posted_at", "is required", p.PostedAt)
	}
	return nil
}
