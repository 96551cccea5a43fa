package consumers

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	kafkago "github.com/segmentio/kafka-go"

	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/events"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// Ingester stores scored posts and refreshes the summaries they touch
type Ingester interface {
	Ingest(ctx context.Context, posts []sentiment.Post) ([]sentiment.Summary, error)
}

// PostsConsumerConfig tunes batching
type PostsConsumerConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	StatsInterval time.Duration
	// MaxBuffered caps posts held for retry while the store is failing
	MaxBuffered   int
}

// PostsConsumer reads post.scored events and ingests them in batches
type PostsConsumer struct {
	reader   MessageReader
	ingester Ingester
	cfg      PostsConsumerConfig
	log      *logger.Logger

	mu    sync.Mutex
	batch []sentiment.Post

	// stats, guarded by mu
	received  int64
	ingested  int64
	malformed int64
	rejected  int64
	summaries int64
	requeued  int64
	dropped   int64
}

var _ BatchConsumer = (*PostsConsumer)(nil)

// NewPostsConsumer creates a posts consumer
func NewPostsConsumer(reader MessageReader, ingester Ingester, cfg PostsConsumerConfig) *PostsConsumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = time.Minute
	}
	if cfg.MaxBuffered < cfg.BatchSize {
		cfg.MaxBuffered = 10 * cfg.BatchSize
	}
	return &PostsConsumer{
		reader:   reader,
		ingester: ingester,
		cfg:      cfg,
		log:      logger.Get().With("component", "posts_consumer"),
		batch:    make([]sentiment.Post, 0, cfg.BatchSize),
	}
}

// Start consumes until ctx is cancelled, then flushes what is buffered and closes the reader
func (c *PostsConsumer) Start(ctx context.Context) error {
	lifecycle := NewBatchConsumerLifecycle(BatchConsumerConfig{
		ConsumerName:  "posts",
		FlushInterval: c.cfg.FlushInterval,
		StatsInterval: c.cfg.StatsInterval,
		Logger:        c.log,
	}, c.reader, c)

	cleanup := lifecycle.Start(ctx)
	defer cleanup()
	lifecycle.StartBackgroundWorkers(ctx)

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("Posts consumer stopping (context cancelled)")
				return nil
			}
			c.log.Errorw("Failed to read post event", "error", err)
			continue
		}

		if full := c.handleMessage(msg); full {
			if err := c.FlushBatch(ctx); err != nil {
				c.log.Errorw("Failed to flush full batch", "error", err)
			}
		}
	}
}

// handleMessage buffers one post and reports whether the batch is full
func (c *PostsConsumer) handleMessage(msg kafkago.Message) bool {
	var event events.PostScoredEvent

	c.mu.Lock()
	defer c.mu.Unlock()

	c.received++
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.malformed++
		c.log.Warnw("Dropping malformed post event",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return false
	}

	c.batch = append(c.batch, event.Post)
	return len(c.batch) >= c.cfg.BatchSize
}

// FlushBatch ingests the buffered posts. A batch rejected for invalid input is
// retried post by post so one bad post does not drop its neighbours. Any other
// failure puts the batch back in the buffer for the next flush.
func (c *PostsConsumer) FlushBatch(ctx context.Context) error {
	c.mu.Lock()
	if len(c.batch) == 0 {
		c.mu.Unlock()
		return nil
	}
	posts := c.batch
	c.batch = make([]sentiment.Post, 0, c.cfg.BatchSize)
	c.mu.Unlock()

	summaries, err := c.ingester.Ingest(ctx, posts)
	if err == nil {
		c.recordIngest(len(posts), len(summaries), 0)
		return nil
	}
	if !errors.Is(err, errors.ErrInvalidInput) {
		c.requeue(posts)
		return errors.Wrapf(err, "ingest %d posts", len(posts))
	}

	var ok, touched, rejected int
	for i := range posts {
		s, err := c.ingester.Ingest(ctx, posts[i:i+1])
		if err != nil {
			rejected++
			c.log.Warnw("Rejected post", "symbol", posts[i].Symbol, "error", err)
			continue
		}
		ok++
		touched += len(s)
	}
	c.recordIngest(ok, touched, rejected)
	return nil
}

// requeue puts failed posts ahead of anything buffered since the swap.
// The oldest posts are dropped once MaxBuffered is exceeded.
func (c *PostsConsumer) requeue(posts []sentiment.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := make([]sentiment.Post, 0, len(posts)+len(c.batch))
	merged = append(merged, posts...)
	merged = append(merged, c.batch...)
	if over := len(merged) - c.cfg.MaxBuffered; over > 0 {
		c.dropped += int64(over)
		c.log.Errorw("Dropping posts over retry buffer limit", "dropped", over, "limit", c.cfg.MaxBuffered)
		merged = merged[over:]
	}
	c.requeued += int64(len(posts))
	c.batch = merged
}

func (c *PostsConsumer) recordIngest(posts, summaries, rejected int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingested += int64(posts)
	c.summaries += int64(summaries)
	c.rejected += int64(rejected)
}

// LogStats logs consumer counters
func (c *PostsConsumer) LogStats(final bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := "Posts consumer stats"
	if final {
		msg = "Posts consumer final stats"
	}
	c.log.Infow(msg,
		"received", humanize.Comma(c.received),
		"ingested", humanize.Comma(c.ingested),
		"summaries_refreshed", humanize.Comma(c.summaries),
		"malformed", c.malformed,
		"rejected", c.rejected,
		"requeued", c.requeued,
		"dropped", c.dropped,
		"buffered", len(c.batch),
	)
}
