package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/vote"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

// Compile-time checks
var (
	_ prediction.Repository  = (*PredictionRepository)(nil)
	_ vote.PredictionChecker = (*PredictionRepository)(nil)
)

// PredictionRepository implements prediction.Repository using sqlx
type PredictionRepository struct {
	db DBTX
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db DBTX) *PredictionRepository {
	return &PredictionRepository{db: db}
}

const predictionColumns = `id, symbol, prediction_date, predicted_direction, confidence,
	sentiment_score, actual_direction, created_at, updated_at`

// Upsert writes the prediction for (symbol, prediction_date). On conflict only the
// scored fields change; id, created_at and actual_direction of the stored row survive.
func (r *PredictionRepository) Upsert(ctx context.Context, p *prediction.Prediction) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	query := `
		INSERT INTO predictions (
			id, symbol, prediction_date, predicted_direction, confidence,
			sentiment_score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, prediction_date) DO UPDATE SET
			predicted_direction = EXCLUDED.predicted_direction,
			confidence = EXCLUDED.confidence,
			sentiment_score = EXCLUDED.sentiment_score,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, actual_direction`

	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.Symbol, calendar.Day(p.PredictionDate), p.PredictedDirection, p.Confidence,
		p.SentimentScore, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID, &p.CreatedAt, &p.ActualDirection)
	if err != nil {
		return errors.Wrapf(err, "upsert prediction %s %s", p.Symbol, calendar.Format(p.PredictionDate))
	}
	return nil
}

// GetByID retrieves a prediction by id
func (r *PredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*prediction.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetBySymbolDate retrieves the prediction for a symbol and day
func (r *PredictionRepository) GetBySymbolDate(ctx context.Context, symbol string, date time.Time) (*prediction.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE symbol = $1 AND prediction_date = $2`
	return r.getOne(ctx, query, symbol, calendar.Day(date))
}

func (r *PredictionRepository) getOne(ctx context.Context, query string, args ...interface{}) (*prediction.Prediction, error) {
	var p prediction.Prediction
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, "get prediction")
	}
	p.PredictionDate = utcDay(p.PredictionDate)
	return &p, nil
}

// ListByDate returns every prediction for a day ordered by symbol
func (r *PredictionRepository) ListByDate(ctx context.Context, date time.Time) ([]prediction.Prediction, error) {
	predictions := make([]prediction.Prediction, 0)

	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE prediction_date = $1 ORDER BY symbol`

	if err := r.db.SelectContext(ctx, &predictions, query, calendar.Day(date)); err != nil {
		return nil, errors.Wrap(err, "list predictions")
	}
	for i := range predictions {
		predictions[i].PredictionDate = utcDay(predictions[i].PredictionDate)
	}
	return predictions, nil
}

// PredictionExists reports whether a prediction with id is stored
func (r *PredictionRepository) PredictionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM predictions WHERE id = $1)`, id)
	if err != nil {
		return false, errors.Wrap(err, "check prediction")
	}
	return exists, nil
}
