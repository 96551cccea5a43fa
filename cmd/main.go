package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/adapters/clickhouse"
	"stockpulse/internal/adapters/config"
	"stockpulse/internal/adapters/errors/noop"
	"stockpulse/internal/adapters/errors/sentry"
	"stockpulse/internal/adapters/kafka"
	"stockpulse/internal/adapters/postgres"
	"stockpulse/internal/adapters/redis"
	"stockpulse/internal/api"
	"stockpulse/internal/api/health"
	"stockpulse/internal/consumers"
	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/domain/vote"
	"stockpulse/internal/events"
	"stockpulse/internal/metrics"
	chrepo "stockpulse/internal/repository/clickhouse"
	"stockpulse/internal/repository/memory"
	pgrepo "stockpulse/internal/repository/postgres"
	"stockpulse/internal/services/analytics"
	"stockpulse/internal/workers"
	"stockpulse/internal/workers/batch"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// predictionStore is what both the prediction and vote services need from storage
type predictionStore interface {
	prediction.Repository
	vote.PredictionChecker
}

// Stores holds the selected repository backends
type Stores struct {
	Summaries   sentiment.Repository
	Posts       sentiment.PostRepository
	Prices      price.Repository
	Predictions predictionStore
	Votes       vote.Repository
}

// Infra holds the optional external connections
type Infra struct {
	Postgres   *postgres.Client
	ClickHouse *clickhouse.Client
	Redis      *redis.Client
	Producer   *kafka.Producer
	closers    []io.Closer
}

func main() {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := initLogger(cfg); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infra, err := initInfra(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize infrastructure: %v", err)
	}
	defer infra.Close(log)

	stores, err := initStores(ctx, cfg, infra, log)
	if err != nil {
		log.Fatalf("Failed to initialize stores: %v", err)
	}

	// Services
	var (
		predictionPublisher prediction.Publisher
		votePublisher       vote.Publisher
	)
	if infra.Producer != nil {
		publisher := events.NewPublisher(infra.Producer, events.Topics{
			Posts:       cfg.Kafka.PostsTopic,
			Predictions: cfg.Kafka.PredictionsTopic,
			Votes:       cfg.Kafka.VotesTopic,
		}, cfg.App.Name)
		predictionPublisher = publisher
		votePublisher = publisher
	}

	var cache analytics.CacheStore
	var locker batch.Locker
	if infra.Redis != nil {
		cache = infra.Redis
		locker = infra.Redis
	}

	symbols := cfg.Tracking.Symbols
	scorer := prediction.NewScorer(cfg.Scoring)
	services := api.Services{
		Sentiment:   sentiment.NewService(stores.Summaries, stores.Posts, symbols),
		Prices:      price.NewService(stores.Prices, symbols),
		Predictions: prediction.NewService(stores.Predictions, stores.Summaries, scorer, symbols, predictionPublisher),
		Votes:       vote.NewService(stores.Votes, stores.Predictions, votePublisher),
		Analytics: analytics.NewService(stores.Summaries, stores.Prices, stores.Predictions, cache, analytics.Config{
			Symbols:     symbols,
			SummaryDays: cfg.Tracking.SummaryDays,
			CacheTTL:    cfg.Redis.CacheTTL,
		}),
	}
	log.Infow("Services initialized", "symbols", len(symbols), "store", cfg.Storage.Store, "posts_store", cfg.Storage.PostsStore)

	// Background workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(batch.NewAggregationWorker(services.Sentiment, locker,
		cfg.Workers.LockTTL, cfg.Workers.AggregationInterval, cfg.Workers.AggregationEnabled))
	scheduler.RegisterWorker(batch.NewPredictionWorker(services.Predictions, locker,
		cfg.Workers.LockTTL, cfg.Workers.PredictionInterval, cfg.Workers.PredictionEnabled))

	// Kafka posts consumer
	var wg sync.WaitGroup
	if cfg.Kafka.Enabled {
		reader := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topic:   cfg.Kafka.PostsTopic,
		})
		postsConsumer := consumers.NewPostsConsumer(reader, services.Sentiment, consumers.PostsConsumerConfig{})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := postsConsumer.Start(ctx); err != nil {
				log.Errorf("Posts consumer error: %v", err)
			}
		}()
		log.Infow("Posts consumer started", "topic", cfg.Kafka.PostsTopic, "group", cfg.Kafka.GroupID)
	}

	// HTTP
	healthHandler := initHealth(cfg, infra, scheduler)
	mode := gin.ReleaseMode
	if cfg.App.Env == "development" {
		mode = gin.DebugMode
	}
	server := api.NewServer(api.ServerConfig{
		Port:              cfg.HTTP.Port,
		ServiceName:       cfg.App.Name,
		Version:           cfg.App.Version,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		VoteRatePerMinute: cfg.HTTP.VoteRatePerMinute,
		VoteBurst:         cfg.HTTP.VoteBurst,
		Mode:              mode,
	}, api.NewHandlers(services), healthHandler)

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	log.Info("System initialized successfully")

	// Wait for shutdown signal
	waitForShutdown(ctx, cancel, cfg.HTTP.ShutdownTimeout, server, scheduler, &wg, errorTracker, log)
}

// loadConfig loads application configuration from environment
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// initLogger initializes structured logging
func initLogger(cfg *config.Config) error {
	return logger.Init(cfg.App.LogLevel, cfg.App.Env)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initInfra opens only the connections the configuration asks for
func initInfra(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Infra, error) {
	infra := &Infra{}

	if cfg.Storage.Store == config.StorePostgres || cfg.Storage.PostsStore == config.StorePostgres {
		pg, err := postgres.NewClient(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		infra.Postgres = pg
		infra.closers = append(infra.closers, pg)
		log.Infow("Connected to PostgreSQL", "host", cfg.Postgres.Host, "db", cfg.Postgres.Database)
	}

	if cfg.Storage.PostsStore == config.StoreClickHouse {
		ch, err := clickhouse.NewClient(ctx, cfg.ClickHouse)
		if err != nil {
			infra.Close(log)
			return nil, err
		}
		infra.ClickHouse = ch
		infra.closers = append(infra.closers, ch)
		log.Infow("Connected to ClickHouse", "host", cfg.ClickHouse.Host, "db", cfg.ClickHouse.Database)
	}

	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			infra.Close(log)
			return nil, err
		}
		infra.Redis = rc
		infra.closers = append(infra.closers, rc)
		log.Infow("Connected to Redis", "addr", cfg.Redis.Addr())
	}

	if cfg.Kafka.Enabled {
		infra.Producer = kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		infra.closers = append(infra.closers, infra.Producer)
		log.Infow("Kafka producer configured", "brokers", cfg.Kafka.Brokers)
	}

	return infra, nil
}

// Close releases connections in reverse order of opening
func (i *Infra) Close(log *logger.Logger) {
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j].Close(); err != nil {
			log.Warnf("Failed to close connection: %v", err)
		}
	}
	i.closers = nil
}

// initStores selects repository backends and prepares their schemas
func initStores(ctx context.Context, cfg *config.Config, infra *Infra, log *logger.Logger) (*Stores, error) {
	var stores Stores
	var mem *memory.Store

	switch cfg.Storage.Store {
	case config.StorePostgres:
		db := infra.Postgres.DB()
		if cfg.Storage.AutoMigrate {
			if err := pgrepo.Migrate(ctx, db); err != nil {
				return nil, errors.Wrap(err, "migrate postgres")
			}
			log.Info("PostgreSQL schema up to date")
		}
		stores.Summaries = pgrepo.NewSentimentRepository(db)
		stores.Prices = pgrepo.NewPriceRepository(db)
		stores.Predictions = pgrepo.NewPredictionRepository(db)
		stores.Votes = pgrepo.NewVoteRepository(db)
		metrics.RegisterStoreCollector(metrics.NewStoreCollector(log, db))
	default:
		mem = memory.NewStore()
		stores.Summaries = mem.Summaries()
		stores.Prices = mem.Prices()
		stores.Predictions = mem.Predictions()
		stores.Votes = mem.Votes()
		log.Warn("Using in-memory store; data is lost on restart")
	}

	switch cfg.Storage.PostsStore {
	case config.StorePostgres:
		stores.Posts = pgrepo.NewPostRepository(infra.Postgres.DB())
	case config.StoreClickHouse:
		posts := chrepo.NewPostRepository(infra.ClickHouse.Conn(), chrepo.DefaultPostsTable)
		if cfg.Storage.AutoMigrate {
			if err := posts.EnsureSchema(ctx); err != nil {
				return nil, errors.Wrap(err, "ensure clickhouse schema")
			}
		}
		stores.Posts = posts
	default:
		if mem == nil {
			mem = memory.NewStore()
		}
		stores.Posts = mem.Posts()
	}

	return &stores, nil
}

// initHealth registers a check per configured dependency
func initHealth(cfg *config.Config, infra *Infra, scheduler *workers.Scheduler) *health.Handler {
	h := health.New(cfg.App.Name, cfg.App.Version)
	if infra.Postgres != nil {
		h.Register("postgres", infra.Postgres.Health)
	}
	if infra.ClickHouse != nil {
		h.Register("clickhouse", infra.ClickHouse.Health)
	}
	if infra.Redis != nil {
		h.Register("redis", infra.Redis.Health)
	}
	if infra.Producer != nil {
		h.Register("kafka", infra.Producer.Health)
	}
	h.SetWorkers(scheduler)
	return h
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	timeout time.Duration,
	server *api.Server,
	scheduler *workers.Scheduler,
	wg *sync.WaitGroup,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("Received %s, shutting down...", sig)
	case <-ctx.Done():
		log.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown: %v", err)
	}
	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown: %v", err)
	}

	// Stop consumers; each flushes its open batch before returning
	cancel()
	wg.Wait()

	// Flush error tracker
	if errorTracker != nil {
		if err := errorTracker.Flush(shutdownCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
