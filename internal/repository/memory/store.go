// Package memory is an in-process implementation of every repository.
// It backs STORE=memory dev mode and service/HTTP tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/domain/vote"
)

type dayKey struct {
	symbol string
	date   time.Time
}

type voteKey struct {
	predictionID uuid.UUID
	voterID      string
}

// Store holds all series behind one RWMutex so every upsert is atomic
type Store struct {
	mu sync.RWMutex

	posts       []sentiment.Post
	postIDs     map[uuid.UUID]struct{}
	summaries   map[dayKey]sentiment.Summary
	bars        map[dayKey]price.Bar
	predictions map[dayKey]prediction.Prediction
	predByID    map[uuid.UUID]dayKey
	votes       map[voteKey]vote.Vote
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		postIDs:     make(map[uuid.UUID]struct{}),
		summaries:   make(map[dayKey]sentiment.Summary),
		bars:        make(map[dayKey]price.Bar),
		predictions: make(map[dayKey]prediction.Prediction),
		predByID:    make(map[uuid.UUID]dayKey),
		votes:       make(map[voteKey]vote.Vote),
	}
}

// Summaries returns the sentiment summary repository view
func (s *Store) Summaries() *SummaryRepository { return &SummaryRepository{s: s} }

// Posts returns the post repository view
func (s *Store) Posts() *PostRepository { return &PostRepository{s: s} }

// Prices returns the price bar repository view
func (s *Store) Prices() *PriceRepository { return &PriceRepository{s: s} }

// Predictions returns the prediction repository view
func (s *Store) Predictions() *PredictionRepository { return &PredictionRepository{s: s} }

// Votes returns the vote ledger view
func (s *Store) Votes() *VoteRepository { return &VoteRepository{s: s} }

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func sortByDate[T any](items []T, date func(T) time.Time) {
	sort.Slice(items, func(i, j int) bool {
		return date(items[i]).Before(date(items[j]))
	})
}
