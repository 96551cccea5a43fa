package main

import (
	"context"
	"flag"
	"time"

	"github.com/dustin/go-humanize"

	"stockpulse/internal/adapters/config"
	"stockpulse/internal/adapters/postgres"
	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/repository/memory"
	pgrepo "stockpulse/internal/repository/postgres"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

func main() {
	// Parse flags
	days := flag.Int("days", 14, "Number of trailing days to generate, ending today")
	seed := flag.Uint64("seed", 42, "Random seed; the same seed yields the same data")
	dryRun := flag.Bool("dry-run", false, "Generate and report without writing")
	flag.Parse()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get().With("component", "seeder")

	if *days <= 0 {
		log.Fatalf("-days must be positive, got %d", *days)
	}

	log.Infow("Starting seeder",
		"days", *days,
		"seed", *seed,
		"dry_run", *dryRun,
		"store", cfg.Storage.Store,
		"symbols", len(cfg.Tracking.Symbols),
	)

	start := time.Now()
	today := calendar.Day(time.Now().UTC())
	ds := NewSynthesizer(*seed).Generate(cfg.Tracking.Symbols, today, *days)

	log.Infof("Generated %s summaries and %s price bars",
		humanize.Comma(int64(len(ds.Summaries))), humanize.Comma(int64(len(ds.Bars))))

	if *dryRun {
		log.Info("Dry-run mode: nothing written")
		return
	}

	ctx := context.Background()
	summaries, prices, predictions, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeFn()

	if err := writeDataset(ctx, cfg, ds, today, *days, summaries, prices, predictions, log); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Infof("Seeding completed, started %s", humanize.Time(start))
}

func openStore(ctx context.Context, cfg *config.Config) (sentiment.Repository, price.Repository, prediction.Repository, func(), error) {
	if cfg.Storage.Store != config.StorePostgres {
		mem := memory.NewStore()
		return mem.Summaries(), mem.Prices(), mem.Predictions(), func() {}, nil
	}

	client, err := postgres.NewClient(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	db := client.DB()
	if err := pgrepo.Migrate(ctx, db); err != nil {
		_ = client.Close()
		return nil, nil, nil, nil, errors.Wrap(err, "migrate")
	}
	closeFn := func() { _ = client.Close() }
	return pgrepo.NewSentimentRepository(db), pgrepo.NewPriceRepository(db), pgrepo.NewPredictionRepository(db), closeFn, nil
}

// writeDataset writes summaries and bars, then scores every generated day through
// the same prediction service the API uses.
func writeDataset(
	ctx context.Context,
	cfg *config.Config,
	ds Dataset,
	today time.Time,
	days int,
	summaries sentiment.Repository,
	prices price.Repository,
	predictions prediction.Repository,
	log *logger.Logger,
) error {
	for i := range ds.Summaries {
		if err := summaries.UpsertSummary(ctx, &ds.Summaries[i]); err != nil {
			return errors.Wrapf(err, "upsert summary %s %s", ds.Summaries[i].Symbol, calendar.Format(ds.Summaries[i].Date))
		}
	}
	log.Infow("Summaries written", "count", len(ds.Summaries))

	priceSvc := price.NewService(prices, cfg.Tracking.Symbols)
	if err := priceSvc.Save(ctx, ds.Bars); err != nil {
		return errors.Wrap(err, "save bars")
	}
	log.Infow("Price bars written", "count", len(ds.Bars))

	predictionSvc := prediction.NewService(predictions, summaries, prediction.NewScorer(cfg.Scoring), cfg.Tracking.Symbols, nil)
	generated, skipped := 0, 0
	for i := days - 1; i >= 0; i-- {
		result := predictionSvc.GenerateAll(ctx, today.AddDate(0, 0, -i))
		generated += len(result.Predictions)
		skipped += len(result.Skipped)
	}
	log.Infow("Predictions generated",
		"generated", humanize.Comma(int64(generated)),
		"skipped", skipped,
	)
	return nil
}
