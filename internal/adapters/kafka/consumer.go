package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"stockpulse/internal/metrics"
	"stockpulse/pkg/logger"
)

// Consumer handles Kafka message consumption within a consumer group
type Consumer struct {
	reader *kafka.Reader
	topic  string
	log    *logger.Logger
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6 // 10MB
	}

	log := logger.Get().With("component", "kafka_consumer", "topic", cfg.Topic)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		StartOffset: kafka.FirstOffset,
	})

	log.Infow("Kafka consumer created",
		"brokers", cfg.Brokers,
		"group_id", cfg.GroupID,
	)

	return &Consumer{
		reader: reader,
		topic:  cfg.Topic,
		log:    log,
	}
}

// ReadMessage blocks until the next message or ctx is done. Returns ctx.Err()
// when the read failed because of shutdown.
func (c *Consumer) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	default:
	}

	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return kafka.Message{}, ctx.Err()
		}
		metrics.RecordKafkaMessage(c.topic, "consumed", err)
		return kafka.Message{}, err
	}
	metrics.RecordKafkaMessage(c.topic, "consumed", nil)
	return msg, nil
}

// Close closes the consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
