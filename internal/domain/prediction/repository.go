package prediction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository stores predictions keyed by (symbol, prediction_date)
type Repository interface {
	// Upsert inserts the prediction or updates direction, confidence and
	// sentiment score of the existing row for its key. p.ID and p.CreatedAt
	// are set to the persisted row's values.
	Upsert(ctx context.Context, p *Prediction) error
	// GetByID returns errors.ErrNotFound for an unknown id
	GetByID(ctx context.Context, id uuid.UUID) (*Prediction, error)
	// GetBySymbolDate returns errors.ErrNotFound when no prediction exists for the key
	GetBySymbolDate(ctx context.Context, symbol string, date time.Time) (*Prediction, error)
	// ListByDate returns all predictions for a day ordered by symbol
	ListByDate(ctx context.Context, date time.Time) ([]Prediction, error)
}
