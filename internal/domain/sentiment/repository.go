package sentiment

import (
	"context"
	"time"
)

// Repository stores daily summaries keyed by (symbol, date)
type Repository interface {
	// UpsertSummary inserts the summary or overwrites the existing row for its key
	UpsertSummary(ctx context.Context, summary *Summary) error
	// GetSummary returns errors.ErrNotFound when no row exists for the key
	GetSummary(ctx context.Context, symbol string, date time.Time) (*Summary, error)
	// ListSummaries returns summaries with from <= date <= to, ascending by date
	ListSummaries(ctx context.Context, symbol string, from, to time.Time) ([]Summary, error)
}

// PostRepository stores raw scored posts
type PostRepository interface {
	SavePosts(ctx context.Context, posts []Post) error
	// ScoresForDay returns the scores of every post for symbol posted on date (UTC day)
	ScoresForDay(ctx context.Context, symbol string, date time.Time) ([]float64, error)
	// RecentPosts returns newest first; an empty symbol means all symbols
	RecentPosts(ctx context.Context, symbol string, limit int) ([]Post, error)
}
