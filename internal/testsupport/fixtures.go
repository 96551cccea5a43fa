package testsupport

import (
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/domain/sentiment"
)

// PostFixture provides builder pattern for creating test posts
type PostFixture struct {
	post sentiment.Post
}

// NewPostFixture creates a neutral AAPL reddit post posted at noon today (UTC)
func NewPostFixture() *PostFixture {
	now := time.Now().UTC()
	noon := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)

	return &PostFixture{
		post: sentiment.Post{
			ID:        uuid.New(),
			Symbol:    "AAPL",
			Title:     "Thoughts on AAPL",
			Source:    "reddit",
			SourceURL: "https://reddit.com/r/stocks",
			PostedAt:  noon,
			CreatedAt: now,
		},
	}
}

func (f *PostFixture) WithSymbol(symbol string) *PostFixture {
	f.post.Symbol = symbol
	return f
}

func (f *PostFixture) WithScore(score float64) *PostFixture {
	f.post.SentimentScore = score
	return f
}

func (f *PostFixture) WithPostedAt(t time.Time) *PostFixture {
	f.post.PostedAt = t.UTC()
	return f
}

func (f *PostFixture) WithSource(source string) *PostFixture {
	f.post.Source = source
	return f
}

// Build returns the post
func (f *PostFixture) Build() sentiment.Post {
	return f.post
}

// BuildScores returns one post per score, spaced a minute apart, each with a fresh id
func (f *PostFixture) BuildScores(scores ...float64) []sentiment.Post {
	posts := make([]sentiment.Post, len(scores))
	for i, s := range scores {
		p := f.post
		p.ID = uuid.New()
		p.SentimentScore = s
		p.PostedAt = f.post.PostedAt.Add(time.Duration(i) * time.Minute)
		posts[i] = p
	}
	return posts
}
