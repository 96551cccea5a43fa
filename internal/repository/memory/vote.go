package memory

import (
	"context"

	"github.com/google/uuid"

	"stockpulse/internal/domain/vote"
)

var _ vote.Repository = (*VoteRepository)(nil)

// VoteRepository implements vote.Repository
type VoteRepository struct {
	s *Store
}

func (r *VoteRepository) Upsert(ctx context.Context, v *vote.Vote) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := voteKey{v.PredictionID, v.VoterID}
	existing, ok := r.s.votes[key]
	if ok {
		v.ID = existing.ID
		v.CreatedAt = existing.CreatedAt
	}
	r.s.votes[key] = *v
	return !ok, nil
}

func (r *VoteRepository) Counts(ctx context.Context, predictionID uuid.UUID) (int, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var agree, disagree int
	for k, v := range r.s.votes {
		if k.predictionID != predictionID {
			continue
		}
		switch v.VoteType {
		case vote.TypeAgree:
			agree++
		case vote.TypeDisagree:
			disagree++
		}
	}
	return agree, disagree, nil
}
