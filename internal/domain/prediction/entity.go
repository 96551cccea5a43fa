package prediction

import (
	"time"

	"github.com/google/uuid"
)

// Direction of a predicted or realized price move
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	// DirectionUnknown is only valid as a realized outcome
	DirectionUnknown Direction = "unknown"
)

// Valid reports whether d can be a predicted direction
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// ValidOutcome reports whether d can be a realized direction
func (d Direction) ValidOutcome() bool {
	return d.Valid() || d == DirectionUnknown
}

func (d Direction) String() string {
	return string(d)
}

// Prediction is the directional call for one symbol on one day.
// Natural key: (Symbol, PredictionDate).
type Prediction struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	Symbol             string    `db:"symbol" json:"symbol"`
	PredictionDate     time.Time `db:"prediction_date" json:"prediction_date"`
	PredictedDirection Direction `db:"predicted_direction" json:"predicted_direction"`
	Confidence         float64   `db:"confidence" json:"confidence"`
	SentimentScore     float64   `db:"sentiment_score" json:"sentiment_score"`
	// ActualDirection is part of the stored record but nothing populates it yet
	ActualDirection *Direction `db:"actual_direction" json:"actual_direction"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
