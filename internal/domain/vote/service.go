package vote

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/metrics"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// Publisher announces cast votes
type Publisher interface {
	PublishVoteCast(ctx context.Context, v *Vote, stats Stats) error
}

// CastResult is returned by Cast
type CastResult struct {
	Vote    Vote
	Created bool
	Stats   Stats
}

// Service implements one-vote-per-voter casting and tallies
type Service struct {
	repo        Repository
	predictions PredictionChecker
	publisher   Publisher
	log         *logger.Logger
}

// NewService constructs a vote service. publisher may be nil.
func NewService(repo Repository, predictions PredictionChecker, publisher Publisher) *Service {
	return &Service{
		repo:        repo,
		predictions: predictions,
		publisher:   publisher,
		log:         logger.Get().With("component", "vote_service"),
	}
}

// Cast records voterID's stance on a prediction. A repeat cast by the same
// voter replaces the earlier vote type.
func (s *Service) Cast(ctx context.Context, predictionID uuid.UUID, voterID string, voteType Type) (*CastResult, error) {
	voteType = Type(strings.ToLower(strings.TrimSpace(string(voteType))))
	if !voteType.Valid() {
		return nil, errors.Wrapf(errors.ErrInvalidVoteType, "vote type must be %q or %q, got %q",
			TypeAgree, TypeDisagree, voteType)
	}
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "voter id is required")
	}

	exists, err := s.predictions.PredictionExists(ctx, predictionID)
	if err != nil {
		return nil, errors.Wrap(err, "check prediction")
	}
	if !exists {
		return nil, errors.Wrapf(errors.ErrNotFound, "prediction %s", predictionID)
	}

	now := time.Now().UTC()
	v := &Vote{
		ID:           uuid.New(),
		PredictionID: predictionID,
		VoterID:      voterID,
		VoteType:     voteType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	created, err := s.repo.Upsert(ctx, v)
	if err != nil {
		return nil, errors.Wrap(err, "upsert vote")
	}
	metrics.RecordVote(voteType.String(), !created)

	stats, err := s.Stats(ctx, predictionID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.PublishVoteCast(ctx, v, stats); err != nil {
			s.log.Warnw("Failed to publish vote event", "prediction_id", predictionID, "error", err)
		}
	}

	return &CastResult{Vote: *v, Created: created, Stats: stats}, nil
}

// Stats returns the tally for a prediction. Unknown ids yield zero stats.
func (s *Service) Stats(ctx context.Context, predictionID uuid.UUID) (Stats, error) {
	agree, disagree, err := s.repo.Counts(ctx, predictionID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "count votes")
	}
	return NewStats(agree, disagree), nil
}
