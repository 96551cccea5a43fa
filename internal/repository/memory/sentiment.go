package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/domain/sentiment"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

var (
	_ sentiment.Repository     = (*SummaryRepository)(nil)
	_ sentiment.PostRepository = (*PostRepository)(nil)
)

// SummaryRepository implements sentiment.Repository
type SummaryRepository struct {
	s *Store
}

func (r *SummaryRepository) UpsertSummary(ctx context.Context, summary *sentiment.Summary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row := *summary
	row.Date = calendar.Day(row.Date)
	r.s.summaries[dayKey{row.Symbol, row.Date}] = row
	return nil
}

func (r *SummaryRepository) GetSummary(ctx context.Context, symbol string, date time.Time) (*sentiment.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.summaries[dayKey{symbol, calendar.Day(date)}]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &row, nil
}

func (r *SummaryRepository) ListSummaries(ctx context.Context, symbol string, from, to time.Time) ([]sentiment.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]sentiment.Summary, 0)
	for k, row := range r.s.summaries {
		if k.symbol == symbol && inRange(k.date, from, to) {
			out = append(out, row)
		}
	}
	sortByDate(out, func(s sentiment.Summary) time.Time { return s.Date })
	return out, nil
}

// PostRepository implements sentiment.PostRepository
type PostRepository struct {
	s *Store
}

// SavePosts stores posts, skipping ids that are already stored
func (r *PostRepository) SavePosts(ctx context.Context, posts []sentiment.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range posts {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		if _, ok := r.s.postIDs[p.ID]; ok {
			continue
		}
		r.s.postIDs[p.ID] = struct{}{}
		r.s.posts = append(r.s.posts, p)
	}
	return nil
}

func (r *PostRepository) ScoresForDay(ctx context.Context, symbol string, date time.Time) ([]float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	day := calendar.Day(date)
	var scores []float64
	for _, p := range r.s.posts {
		if p.Symbol == symbol && calendar.Day(p.PostedAt).Equal(day) {
			scores = append(scores, p.SentimentScore)
		}
	}
	return scores, nil
}

func (r *PostRepository) RecentPosts(ctx context.Context, symbol string, limit int) ([]sentiment.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]sentiment.Post, 0)
	for _, p := range r.s.posts {
		if symbol == "" || p.Symbol == symbol {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PostedAt.After(out[j].PostedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
