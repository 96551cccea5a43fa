package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/domain/vote"
	"stockpulse/pkg/errors"
)

// Compile-time check
var _ vote.Repository = (*VoteRepository)(nil)

// VoteRepository implements vote.Repository using sqlx
type VoteRepository struct {
	db DBTX
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db DBTX) *VoteRepository {
	return &VoteRepository{db: db}
}

// Upsert records the vote in one statement so concurrent votes by the same
// voter collapse onto a single row.
func (r *VoteRepository) Upsert(ctx context.Context, v *vote.Vote) (bool, error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now().UTC()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	query := `
		INSERT INTO prediction_votes (id, prediction_id, voter_id, vote_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (prediction_id, voter_id) DO UPDATE SET
			vote_type = EXCLUDED.vote_type,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		v.ID, v.PredictionID, v.VoterID, v.VoteType, v.CreatedAt, v.UpdatedAt,
	).Scan(&v.ID, &v.CreatedAt, &inserted)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, errors.Wrapf(errors.ErrNotFound, "prediction %s", v.PredictionID)
		}
		return false, errors.Wrap(err, "upsert vote")
	}
	return inserted, nil
}

// Counts tallies agree and disagree votes for a prediction
func (r *VoteRepository) Counts(ctx context.Context, predictionID uuid.UUID) (int, int, error) {
	var row struct {
		Agree    int `db:"agree"`
		Disagree int `db:"disagree"`
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE vote_type = 'agree') AS agree,
			COUNT(*) FILTER (WHERE vote_type = 'disagree') AS disagree
		FROM prediction_votes
		WHERE prediction_id = $1`

	if err := r.db.GetContext(ctx, &row, query, predictionID); err != nil {
		return 0, 0, errors.Wrap(err, "count votes")
	}
	return row.Agree, row.Disagree, nil
}
