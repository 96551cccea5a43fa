package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"stockpulse/internal/domain/sentiment"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

// DefaultPostsTable is the table scored posts are written to
const DefaultPostsTable = "posts"

// Compile-time check
var _ sentiment.PostRepository = (*PostRepository)(nil)

// PostRepository implements sentiment.PostRepository using ClickHouse.
// Posts are append-only; a redelivered post is collapsed by ReplacingMergeTree on merge.
type PostRepository struct {
	conn  driver.Conn
	table string
}

// NewPostRepository creates a post repository writing to table
func NewPostRepository(conn driver.Conn, table string) *PostRepository {
	if table == "" {
		table = DefaultPostsTable
	}
	return &PostRepository{conn: conn, table: table}
}

// EnsureSchema creates the posts table when missing
func (r *PostRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id              UUID,
			symbol          LowCardinality(String),
			title           String,
			content         String,
			source          LowCardinality(String),
			source_url      String,
			sentiment_score Float64,
			posted_at       DateTime64(3, 'UTC'),
			created_at      DateTime64(3, 'UTC')
		)
		ENGINE = ReplacingMergeTree(created_at)
		PARTITION BY toYYYYMM(posted_at)
		ORDER BY (symbol, posted_at, id)`, r.table)

	if err := r.conn.Exec(ctx, query); err != nil {
		return errors.Wrapf(err, "create table %s", r.table)
	}
	return nil
}

// SavePosts inserts posts in a single batch
func (r *PostRepository) SavePosts(ctx context.Context, posts []sentiment.Post) error {
	if len(posts) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			id, symbol, title, content, source, source_url, sentiment_score, posted_at, created_at
		)`, r.table))
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for i := range posts {
		if err := batch.AppendStruct(&posts[i]); err != nil {
			return errors.Wrap(err, "failed to append post")
		}
	}

	if err := batch.Send(); err != nil {
		return errors.Wrapf(err, "send batch of %d posts", len(posts))
	}
	return nil
}

type scoreRow struct {
	Score float64 `ch:"sentiment_score"`
}

// ScoresForDay returns scores of posts about symbol posted during the UTC day of date.
// FINAL drops redelivered duplicates that have not been merged yet.
func (r *PostRepository) ScoresForDay(ctx context.Context, symbol string, date time.Time) ([]float64, error) {
	from := calendar.Day(date)
	to := from.AddDate(0, 0, 1)

	var rows []scoreRow
	query := fmt.Sprintf(`
		SELECT sentiment_score FROM %s FINAL
		WHERE symbol = $1 AND posted_at >= $2 AND posted_at < $3`, r.table)

	if err := r.conn.Select(ctx, &rows, query, symbol, from, to); err != nil {
		return nil, errors.Wrap(err, "select day scores")
	}

	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = row.Score
	}
	return scores, nil
}

// RecentPosts returns the newest posts, optionally filtered by symbol
func (r *PostRepository) RecentPosts(ctx context.Context, symbol string, limit int) ([]sentiment.Post, error) {
	posts := make([]sentiment.Post, 0)

	query := fmt.Sprintf(`
		SELECT id, symbol, title, content, source, source_url, sentiment_score, posted_at, created_at
		FROM %s FINAL`, r.table)
	args := []interface{}{}

	if symbol != "" {
		query += ` WHERE symbol = $1`
		args = append(args, symbol)
	}
	query += fmt.Sprintf(` ORDER BY posted_at DESC LIMIT %d`, limit)

	if err := r.conn.Select(ctx, &posts, query, args...); err != nil {
		return nil, errors.Wrap(err, "select recent posts")
	}
	for i := range posts {
		posts[i].PostedAt = posts[i].PostedAt.UTC()
		posts[i].CreatedAt = posts[i].CreatedAt.UTC()
	}
	return posts, nil
}
