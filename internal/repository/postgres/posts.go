package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"stockpulse/internal/domain/sentiment"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

// Compile-time check
var _ sentiment.PostRepository = (*PostRepository)(nil)

// PostRepository implements sentiment.PostRepository using sqlx
type PostRepository struct {
	db DBTX
}

// NewPostRepository creates a new post repository
func NewPostRepository(db DBTX) *PostRepository {
	return &PostRepository{db: db}
}

// SavePosts inserts posts in one statement. Re-delivered posts (same id) are ignored.
func (r *PostRepository) SavePosts(ctx context.Context, posts []sentiment.Post) error {
	if len(posts) == 0 {
		return nil
	}

	query := `
		INSERT INTO posts (
			id, symbol, title, content, source, source_url, sentiment_score, posted_at, created_at
		) VALUES (
			:id, :symbol, :title, :content, :source, :source_url, :sentiment_score, :posted_at, :created_at
		)
		ON CONFLICT (id) DO NOTHING`

	// sqlx expands a slice argument into a multi-row VALUES list
	query, args, err := sqlx.Named(query, posts)
	if err != nil {
		return errors.Wrap(err, "bind posts")
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "insert %d posts", len(posts))
	}
	return nil
}

// ScoresForDay returns the scores of posts about symbol posted during the UTC day of date
func (r *PostRepository) ScoresForDay(ctx context.Context, symbol string, date time.Time) ([]float64, error) {
	from := calendar.Day(date)
	to := from.AddDate(0, 0, 1)

	scores := make([]float64, 0)
	query := `
		SELECT sentiment_score FROM posts
		WHERE symbol = $1 AND posted_at >= $2 AND posted_at < $3`

	if err := r.db.SelectContext(ctx, &scores, query, symbol, from, to); err != nil {
		return nil, errors.Wrap(err, "select day scores")
	}
	return scores, nil
}

// RecentPosts returns the newest posts, optionally filtered by symbol
func (r *PostRepository) RecentPosts(ctx context.Context, symbol string, limit int) ([]sentiment.Post, error) {
	posts := make([]sentiment.Post, 0)

	query := `
		SELECT id, symbol, title, content, source, source_url, sentiment_score, posted_at, created_at
		FROM posts
		WHERE ($1 = '' OR symbol = $1)
		ORDER BY posted_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &posts, query, symbol, limit); err != nil {
		return nil, errors.Wrap(err, "select recent posts")
	}
	return posts, nil
}
