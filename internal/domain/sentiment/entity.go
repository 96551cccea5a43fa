package sentiment

import (
	"time"

	"github.com/google/uuid"
)

// Classification boundaries for a single post score
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Label is the polarity bucket of one scored post
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

func (l Label) String() string {
	return string(l)
}

// Classify buckets a score in [-1, 1]. Both boundaries are inclusive.
func Classify(score float64) Label {
	switch {
	case score >= PositiveThreshold:
		return LabelPositive
	case score <= NegativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Post is one scored social/news item about a symbol
type Post struct {
	ID             uuid.UUID `db:"id" ch:"id" json:"id"`
	Symbol         string    `db:"symbol" ch:"symbol" json:"symbol"`
	Title          string    `db:"title" ch:"title" json:"title"`
	Content        string    `db:"content" ch:"content" json:"content"`
	Source         string    `db:"source" ch:"source" json:"source"` // reddit, news, ...
	SourceURL      string    `db:"source_url" ch:"source_url" json:"source_url"`
	SentimentScore float64   `db:"sentiment_score" ch:"sentiment_score" json:"sentiment_score"`
	PostedAt       time.Time `db:"posted_at" ch:"posted_at" json:"posted_at"`
	CreatedAt      time.Time `db:"created_at" ch:"created_at" json:"created_at"`
}

// Summary is the daily sentiment rollup for one symbol.
// Natural key: (Symbol, Date).
type Summary struct {
	Symbol        string    `db:"symbol" json:"symbol"`
	Date          time.Time `db:"date" json:"date"`
	AvgSentiment  float64   `db:"avg_sentiment" json:"avg_sentiment"`
	PostCount     int       `db:"post_count" json:"post_count"`
	PositiveCount int       `db:"positive_count" json:"positive_count"`
	NegativeCount int       `db:"negative_count" json:"negative_count"`
	NeutralCount  int       `db:"neutral_count" json:"neutral_count"`
}

// Placeholder is the zero summary reported when a symbol has no data for a day
func Placeholder(symbol string, date time.Time) Summary {
	return Summary{Symbol: symbol, Date: date}
}

// Key identifies a (symbol, day) pair
type Key struct {
	Symbol string
	Date   time.Time
}
