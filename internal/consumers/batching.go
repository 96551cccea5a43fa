package consumers

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"stockpulse/pkg/logger"
)

// MessageReader is the read side of a Kafka consumer group. Implemented by kafka.Consumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// BatchConsumer defines the interface for batch-based consumers
// that accumulate messages and flush them periodically
type BatchConsumer interface {
	// FlushBatch flushes the current batch to storage
	FlushBatch(ctx context.Context) error

	// LogStats logs consumer statistics (final should be true on shutdown)
	LogStats(final bool)
}

// BatchConsumerConfig holds configuration for batch consumer lifecycle
type BatchConsumerConfig struct {
	ConsumerName  string
	FlushInterval time.Duration
	StatsInterval time.Duration
	Logger        *logger.Logger
}

// BatchConsumerLifecycle owns the flush and stats tickers of a batch consumer
// and performs the final flush on shutdown.
type BatchConsumerLifecycle struct {
	config        BatchConsumerConfig
	flushTicker   *time.Ticker
	statsTicker   *time.Ticker
	reader        MessageReader
	batchConsumer BatchConsumer
}

// NewBatchConsumerLifecycle creates a new batch consumer lifecycle manager
func NewBatchConsumerLifecycle(
	config BatchConsumerConfig,
	reader MessageReader,
	batchConsumer BatchConsumer,
) *BatchConsumerLifecycle {
	return &BatchConsumerLifecycle{
		config:        config,
		reader:        reader,
		batchConsumer: batchConsumer,
	}
}

// Start initializes tickers and returns the cleanup function
// Usage:
//
//	cleanup := lifecycle.Start(ctx)
//	defer cleanup()
//	lifecycle.StartBackgroundWorkers(ctx)
func (l *BatchConsumerLifecycle) Start(ctx context.Context) func() {
	l.config.Logger.Infow("Starting batch consumer lifecycle",
		"consumer", l.config.ConsumerName,
		"flush_interval", l.config.FlushInterval,
		"stats_interval", l.config.StatsInterval,
	)

	l.flushTicker = time.NewTicker(l.config.FlushInterval)
	l.statsTicker = time.NewTicker(l.config.StatsInterval)

	return func() {
		l.flushTicker.Stop()
		l.statsTicker.Stop()

		// main ctx is already cancelled here
		flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := l.batchConsumer.FlushBatch(flushCtx); err != nil {
			l.config.Logger.Errorw("Failed to flush final batch",
				"consumer", l.config.ConsumerName,
				"error", err,
			)
		}

		l.batchConsumer.LogStats(true)

		if err := l.reader.Close(); err != nil {
			l.config.Logger.Errorw("Failed to close Kafka consumer",
				"consumer", l.config.ConsumerName,
				"error", err,
			)
			return
		}
		l.config.Logger.Infow("Batch consumer closed", "consumer", l.config.ConsumerName)
	}
}

// StartBackgroundWorkers starts periodic flush and stats logging goroutines
func (l *BatchConsumerLifecycle) StartBackgroundWorkers(ctx context.Context) {
	go l.periodicFlush(ctx)
	go l.periodicStatsLog(ctx)
}

func (l *BatchConsumerLifecycle) periodicFlush(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.flushTicker.C:
			if err := l.batchConsumer.FlushBatch(ctx); err != nil {
				l.config.Logger.Errorw("Periodic flush failed",
					"consumer", l.config.ConsumerName,
					"error", err,
				)
			}
		}
	}
}

func (l *BatchConsumerLifecycle) periodicStatsLog(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.statsTicker.C:
			l.batchConsumer.LogStats(false)
		}
	}
}
