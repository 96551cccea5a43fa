package postgres

import (
	"context"
	"database/sql"
	"time"

	"stockpulse/internal/domain/sentiment"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

// Compile-time check
var _ sentiment.Repository = (*SentimentRepository)(nil)

// SentimentRepository implements sentiment.Repository using sqlx
type SentimentRepository struct {
	db DBTX
}

// NewSentimentRepository creates a new sentiment summary repository
func NewSentimentRepository(db DBTX) *SentimentRepository {
	return &SentimentRepository{db: db}
}

// UpsertSummary inserts or overwrites the summary for (symbol, date)
func (r *SentimentRepository) UpsertSummary(ctx context.Context, s *sentiment.Summary) error {
	query := `
		INSERT INTO sentiment_summaries (
			symbol, date, avg_sentiment, post_count,
			positive_count, negative_count, neutral_count, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (symbol, date) DO UPDATE SET
			avg_sentiment = EXCLUDED.avg_sentiment,
			post_count = EXCLUDED.post_count,
			positive_count = EXCLUDED.positive_count,
			negative_count = EXCLUDED.negative_count,
			neutral_count = EXCLUDED.neutral_count,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		s.Symbol, calendar.Day(s.Date), s.AvgSentiment, s.PostCount,
		s.PositiveCount, s.NegativeCount, s.NeutralCount,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert summary %s %s", s.Symbol, calendar.Format(s.Date))
	}
	return nil
}

// GetSummary returns the summary for (symbol, date)
func (r *SentimentRepository) GetSummary(ctx context.Context, symbol string, date time.Time) (*sentiment.Summary, error) {
	var s sentiment.Summary

	query := `
		SELECT symbol, date, avg_sentiment, post_count, positive_count, negative_count, neutral_count
		FROM sentiment_summaries
		WHERE symbol = $1 AND date = $2`

	err := r.db.GetContext(ctx, &s, query, symbol, calendar.Day(date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, "get summary")
	}
	s.Date = utcDay(s.Date)
	return &s, nil
}

// ListSummaries returns summaries in the inclusive date range, oldest first
func (r *SentimentRepository) ListSummaries(ctx context.Context, symbol string, from, to time.Time) ([]sentiment.Summary, error) {
	summaries := make([]sentiment.Summary, 0)

	query := `
		SELECT symbol, date, avg_sentiment, post_count, positive_count, negative_count, neutral_count
		FROM sentiment_summaries
		WHERE symbol = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC`

	if err := r.db.SelectContext(ctx, &summaries, query, symbol, calendar.Day(from), calendar.Day(to)); err != nil {
		return nil, errors.Wrap(err, "list summaries")
	}
	for i := range summaries {
		summaries[i].Date = utcDay(summaries[i].Date)
	}
	return summaries, nil
}
