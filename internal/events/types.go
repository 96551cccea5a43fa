package events

import (
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/domain/vote"
)

// Event types
const (
	TypePostScored          = "post.scored"
	TypePredictionGenerated = "prediction.generated"
	TypeVoteCast            = "vote.cast"
)

const schemaVersion = "1.0"

// BaseEvent carries envelope fields shared by every event
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a new base event with defaults
func NewBaseEvent(eventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   schemaVersion,
	}
}

// PostScoredEvent is one post produced by the external scoring pipeline
type PostScoredEvent struct {
	Base BaseEvent      `json:"base"`
	Post sentiment.Post `json:"post"`
}

// PredictionGeneratedEvent is emitted after a prediction is persisted
type PredictionGeneratedEvent struct {
	Base       BaseEvent             `json:"base"`
	Prediction prediction.Prediction `json:"prediction"`
}

// VoteCastEvent is emitted after a vote is recorded. The voter id is never included.
type VoteCastEvent struct {
	Base         BaseEvent  `json:"base"`
	PredictionID uuid.UUID  `json:"prediction_id"`
	VoteType     vote.Type  `json:"vote_type"`
	Stats        vote.Stats `json:"stats"`
}
