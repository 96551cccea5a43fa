package postgres

import (
	"context"

	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id              UUID PRIMARY KEY,
		symbol          VARCHAR(16) NOT NULL,
		title           TEXT NOT NULL DEFAULT '',
		content         TEXT NOT NULL DEFAULT '',
		source          VARCHAR(32) NOT NULL DEFAULT '',
		source_url      TEXT NOT NULL DEFAULT '',
		sentiment_score DOUBLE PRECISION NOT NULL CHECK (sentiment_score BETWEEN -1 AND 1),
		posted_at       TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_symbol_posted_at ON posts (symbol, posted_at DESC)`,

	`CREATE TABLE IF NOT EXISTS sentiment_summaries (
		id             BIGSERIAL PRIMARY KEY,
		symbol         VARCHAR(16) NOT NULL,
		date           DATE NOT NULL,
		avg_sentiment  DOUBLE PRECISION NOT NULL,
		post_count     INTEGER NOT NULL CHECK (post_count >= 0),
		positive_count INTEGER NOT NULL CHECK (positive_count >= 0),
		negative_count INTEGER NOT NULL CHECK (negative_count >= 0),
		neutral_count  INTEGER NOT NULL CHECK (neutral_count >= 0),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (symbol, date)
	)`,

	`CREATE TABLE IF NOT EXISTS stock_prices (
		id          BIGSERIAL PRIMARY KEY,
		symbol      VARCHAR(16) NOT NULL,
		date        DATE NOT NULL,
		open_price  NUMERIC(18, 4) NOT NULL,
		high_price  NUMERIC(18, 4) NOT NULL,
		low_price   NUMERIC(18, 4) NOT NULL,
		close_price NUMERIC(18, 4) NOT NULL CHECK (close_price > 0),
		volume      BIGINT NOT NULL DEFAULT 0 CHECK (volume >= 0),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (symbol, date)
	)`,

	`CREATE TABLE IF NOT EXISTS predictions (
		id                  UUID PRIMARY KEY,
		symbol              VARCHAR(16) NOT NULL,
		prediction_date     DATE NOT NULL,
		predicted_direction VARCHAR(8) NOT NULL CHECK (predicted_direction IN ('up', 'down')),
		confidence          DOUBLE PRECISION NOT NULL CHECK (confidence BETWEEN 0 AND 1),
		sentiment_score     DOUBLE PRECISION NOT NULL,
		actual_direction    VARCHAR(8) CHECK (actual_direction IN ('up', 'down', 'unknown')),
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (symbol, prediction_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_date ON predictions (prediction_date)`,

	`CREATE TABLE IF NOT EXISTS prediction_votes (
		id            UUID PRIMARY KEY,
		prediction_id UUID NOT NULL REFERENCES predictions (id) ON DELETE CASCADE,
		voter_id      VARCHAR(128) NOT NULL,
		vote_type     VARCHAR(16) NOT NULL CHECK (vote_type IN ('agree', 'disagree')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (prediction_id, voter_id)
	)`,
}

// Migrate creates tables and indexes when they do not exist
func Migrate(ctx context.Context, db DBTX) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "schema statement %d", i)
		}
	}
	logger.Get().Debugw("Postgres schema ensured", "statements", len(schema))
	return nil
}
