package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"stockpulse/internal/metrics"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// Producer handles Kafka message publishing, one writer per topic
type Producer struct {
	mu      sync.Mutex
	writers map[string]*kafka.Writer
	brokers []string
	timeout time.Duration
	log     *logger.Logger
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers      []string
	WriteTimeout time.Duration
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		brokers: cfg.Brokers,
		timeout: cfg.WriteTimeout,
		log:     logger.Get().With("component", "kafka_producer"),
	}
}

func (p *Producer) getWriter(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // same symbol key, same partition
		WriteTimeout:           p.timeout,
		AllowAutoTopicCreation: true,
	}
	p.writers[topic] = w
	return w
}

// Publish JSON-encodes event and sends it to topic
func (p *Producer) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	}

	err = p.getWriter(topic).WriteMessages(ctx, msg)
	metrics.RecordKafkaMessage(topic, "produced", err)
	if err != nil {
		p.log.Errorw("Failed to publish", "topic", topic, "key", key, "error", err)
		return errors.Wrapf(err, "publish to %s", topic)
	}

	p.log.Debugw("Published", "topic", topic, "key", key, "size_bytes", len(data))
	return nil
}

// Health dials the first reachable broker
func (p *Producer) Health(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	if lastErr == nil {
		return errors.Wrap(errors.ErrUnavailable, "no kafka brokers configured")
	}
	return errors.Wrap(lastErr, "dial kafka")
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs errors.MultiError
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs.Add(errors.Wrapf(err, "close writer for %s", topic))
		}
	}
	return errs.ToError()
}
