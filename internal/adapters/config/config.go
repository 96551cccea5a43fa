package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"stockpulse/internal/domain/prediction"
	"stockpulse/pkg/errors"
)

const (
	StoreMemory     = "memory"
	StorePostgres   = "postgres"
	StoreClickHouse = "clickhouse"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Storage       StorageConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	ErrorTracking ErrorTrackingConfig
	Tracking      TrackingConfig
	Scoring       prediction.ScoringConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"stockpulse"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type HTTPConfig struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s"`
	// Per-voter token bucket on the vote endpoint
	VoteRatePerMinute float64 `envconfig:"HTTP_VOTE_RATE_PER_MINUTE" default:"30"`
	VoteBurst         int     `envconfig:"HTTP_VOTE_BURST" default:"5"`
}

type StorageConfig struct {
	// Store selects the backend for summaries, prices, predictions and votes
	Store string `envconfig:"STORE" default:"postgres"`
	// PostsStore selects where raw posts live: postgres, clickhouse or memory
	PostsStore  string `envconfig:"POSTS_STORE" default:"postgres"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"true"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"stockpulse"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"stockpulse"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"stockpulse"`
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	// TTL of cached analytics responses
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"60s"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled          bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers          []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupID          string   `envconfig:"KAFKA_GROUP_ID" default:"stockpulse"`
	PostsTopic       string   `envconfig:"KAFKA_POSTS_TOPIC" default:"stockpulse.posts.scored"`
	PredictionsTopic string   `envconfig:"KAFKA_PREDICTIONS_TOPIC" default:"stockpulse.predictions"`
	VotesTopic       string   `envconfig:"KAFKA_VOTES_TOPIC" default:"stockpulse.votes"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type TrackingConfig struct {
	Symbols []string `envconfig:"TRACKED_SYMBOLS" default:"AAPL,GOOGL,AMZN,META,NFLX,TSLA,MSFT,NVDA,IBM,CRM,ORCL,ADBE,INTC,AMD,UBER,PYPL,SPOT,SQ"`
	// WatchlistFile, when set, replaces Symbols with the list in a YAML file
	WatchlistFile string `envconfig:"WATCHLIST_FILE"`
	HistoryDays   int    `envconfig:"HISTORY_DAYS" default:"30"`
	SummaryDays   int    `envconfig:"SUMMARY_DAYS" default:"7"`
}

// WorkerConfig contains intervals for the background batch workers
type WorkerConfig struct {
	AggregationEnabled  bool          `envconfig:"WORKER_AGGREGATION_ENABLED" default:"true"`
	AggregationInterval time.Duration `envconfig:"WORKER_AGGREGATION_INTERVAL" default:"5m"`
	PredictionEnabled   bool          `envconfig:"WORKER_PREDICTION_ENABLED" default:"true"`
	PredictionInterval  time.Duration `envconfig:"WORKER_PREDICTION_INTERVAL" default:"5m"`
	// LockTTL bounds how long a batch lock survives a crashed holder
	LockTTL time.Duration `envconfig:"WORKER_LOCK_TTL" default:"4m"`
}

// Watchlist is the YAML layout of WATCHLIST_FILE
type Watchlist struct {
	Symbols []string `yaml:"symbols"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if cfg.Tracking.WatchlistFile != "" {
		symbols, err := LoadWatchlist(cfg.Tracking.WatchlistFile)
		if err != nil {
			return nil, err
		}
		cfg.Tracking.Symbols = symbols
	}
	cfg.Tracking.Symbols = normalizeSymbols(cfg.Tracking.Symbols)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWatchlist reads the symbol list from a YAML file
func LoadWatchlist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read watchlist")
	}

	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, errors.Wrap(err, "parse watchlist")
	}
	if len(wl.Symbols) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "watchlist %s has no symbols", path)
	}
	return normalizeSymbols(wl.Symbols), nil
}

// Validate checks cross-field constraints envconfig cannot express
func (c *Config) Validate() error {
	switch c.Storage.Store {
	case StorePostgres, StoreMemory:
	default:
		return errors.NewValidationError("STORE", "must be postgres or memory", c.Storage.Store)
	}
	switch c.Storage.PostsStore {
	case StorePostgres, StoreClickHouse, StoreMemory:
	default:
		return errors.NewValidationError("POSTS_STORE", "must be postgres, clickhouse or memory", c.Storage.PostsStore)
	}
	if c.Storage.PostsStore == StorePostgres && c.Storage.Store != StorePostgres {
		return errors.NewValidationError("POSTS_STORE", "postgres posts store requires STORE=postgres", c.Storage.PostsStore)
	}
	if len(c.Tracking.Symbols) == 0 {
		return errors.NewValidationError("TRACKED_SYMBOLS", "at least one symbol is required", c.Tracking.Symbols)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.NewValidationError("KAFKA_BROKERS", "required when kafka is enabled", c.Kafka.Brokers)
	}
	if c.ErrorTracking.Enabled && c.ErrorTracking.SentryDSN == "" {
		return errors.NewValidationError("SENTRY_DSN", "required when error tracking is enabled", "")
	}
	if err := c.Scoring.Validate(); err != nil {
		return errors.Wrap(err, "scoring config")
	}
	return nil
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
