package vote

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the vote ledger
type Repository interface {
	// Upsert atomically inserts the vote or overwrites vote_type of the
	// existing (prediction_id, voter_id) row. created reports an insert.
	// v.ID and v.CreatedAt are set to the persisted row's values.
	Upsert(ctx context.Context, v *Vote) (created bool, err error)
	// Counts returns agree and disagree tallies for a prediction
	Counts(ctx context.Context, predictionID uuid.UUID) (agree int, disagree int, err error)
}

// PredictionChecker confirms a prediction exists
type PredictionChecker interface {
	// PredictionExists returns false, nil for an unknown id
	PredictionExists(ctx context.Context, id uuid.UUID) (bool, error)
}
