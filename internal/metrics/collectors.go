package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"stockpulse/pkg/logger"
)

// StoreCollector reports row counts of the Postgres store at scrape time
type StoreCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB

	tableRows        *prometheus.Desc
	predictionsToday *prometheus.Desc
}

// NewStoreCollector creates a collector over the given database
func NewStoreCollector(log *logger.Logger, postgres *sqlx.DB) *StoreCollector {
	return &StoreCollector{
		log:      log,
		postgres: postgres,

		tableRows: prometheus.NewDesc(
			"stockpulse_store_rows",
			"Number of rows per table",
			[]string{"table"}, nil,
		),
		predictionsToday: prometheus.NewDesc(
			"stockpulse_predictions_today",
			"Predictions for the current UTC day, by direction",
			[]string{"direction"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tableRows
	ch <- c.predictionsToday
}

// Collect implements prometheus.Collector
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectTableRows(ctx, ch)
	c.collectPredictionsToday(ctx, ch)
}

func (c *StoreCollector) collectTableRows(ctx context.Context, ch chan<- prometheus.Metric) {
	// Table names are constants, never user input
	for _, table := range []string{"posts", "sentiment_summaries", "stock_prices", "predictions", "prediction_votes"} {
		var count int
		if err := c.postgres.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table); err != nil {
			c.log.Warnw("Failed to collect table row count", "table", table, "error", err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.tableRows, prometheus.GaugeValue, float64(count), table)
	}
}

func (c *StoreCollector) collectPredictionsToday(ctx context.Context, ch chan<- prometheus.Metric) {
	type directionCount struct {
		Direction string `db:"direction"`
		Count     int    `db:"count"`
	}

	var stats []directionCount
	err := c.postgres.SelectContext(ctx, &stats, `
		SELECT predicted_direction AS direction, COUNT(*) AS count
		FROM predictions
		WHERE prediction_date = CURRENT_DATE
		GROUP BY predicted_direction
	`)
	if err != nil {
		c.log.Warnw("Failed to collect prediction stats", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(c.predictionsToday, prometheus.GaugeValue, float64(stat.Count), stat.Direction)
	}
}

// RegisterStoreCollector registers the collector with the default registry
func RegisterStoreCollector(collector *StoreCollector) {
	prometheus.MustRegister(collector)
}
