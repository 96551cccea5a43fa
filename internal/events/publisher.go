package events

import (
	"context"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/domain/vote"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// Sender writes a JSON event to a topic. Implemented by kafka.Producer.
type Sender interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// Topics names the destination of each event family
type Topics struct {
	Posts       string
	Predictions string
	Votes       string
}

// Compile-time checks
var (
	_ prediction.Publisher = (*Publisher)(nil)
	_ vote.Publisher       = (*Publisher)(nil)
)

// Publisher publishes domain events
type Publisher struct {
	sender Sender
	topics Topics
	source string
	log    *logger.Logger
}

// NewPublisher creates a new event publisher. source identifies the emitting process.
func NewPublisher(sender Sender, topics Topics, source string) *Publisher {
	return &Publisher{
		sender: sender,
		topics: topics,
		source: source,
		log:    logger.Get().With("component", "event_publisher"),
	}
}

// PublishPredictionGenerated publishes a persisted prediction keyed by symbol
func (p *Publisher) PublishPredictionGenerated(ctx context.Context, pred *prediction.Prediction) error {
	event := PredictionGeneratedEvent{
		Base:       NewBaseEvent(TypePredictionGenerated, p.source),
		Prediction: *pred,
	}
	return p.publish(ctx, p.topics.Predictions, pred.Symbol, event)
}

// PublishVoteCast publishes a recorded vote and the resulting tallies, keyed by prediction
func (p *Publisher) PublishVoteCast(ctx context.Context, v *vote.Vote, stats vote.Stats) error {
	event := VoteCastEvent{
		Base:         NewBaseEvent(TypeVoteCast, p.source),
		PredictionID: v.PredictionID,
		VoteType:     v.VoteType,
		Stats:        stats,
	}
	return p.publish(ctx, p.topics.Votes, v.PredictionID.String(), event)
}

// PublishPostScored publishes a scored post onto the ingestion topic
func (p *Publisher) PublishPostScored(ctx context.Context, post sentiment.Post) error {
	event := PostScoredEvent{
		Base: NewBaseEvent(TypePostScored, p.source),
		Post: post,
	}
	return p.publish(ctx, p.topics.Posts, post.Symbol, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	if topic == "" {
		return errors.Wrap(errors.ErrInvalidInput, "event topic is not configured")
	}
	if err := p.sender.Publish(ctx, topic, key, event); err != nil {
		return errors.Wrapf(err, "publish to %s", topic)
	}
	return nil
}
