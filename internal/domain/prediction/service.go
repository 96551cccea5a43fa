package prediction

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/metrics"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// Publisher announces written predictions to downstream consumers
type Publisher interface {
	PublishPredictionGenerated(ctx context.Context, p *Prediction) error
}

// GenerateResult is the outcome of a batch scoring run
type GenerateResult struct {
	Predictions []Prediction
	Skipped     map[string]error
}

// Service scores summary windows and persists predictions
type Service struct {
	repo      Repository
	summaries sentiment.Repository
	scorer    *Scorer
	symbols   []string
	publisher Publisher
	log       *logger.Logger
}

// NewService constructs a prediction service. publisher may be nil.
func NewService(repo Repository, summaries sentiment.Repository, scorer *Scorer, symbols []string, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		summaries: summaries,
		scorer:    scorer,
		symbols:   symbols,
		publisher: publisher,
		log:       logger.Get().With("component", "prediction_service"),
	}
}

// Generate scores symbol for date over the trailing window ending on date and upserts the result.
// Returns errors.ErrNoData when the window has no summaries.
func (s *Service) Generate(ctx context.Context, symbol string, date time.Time) (*Prediction, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "symbol is required")
	}

	from, to := calendar.Window(date, s.scorer.Config().WindowDays)
	window, err := s.summaries.ListSummaries(ctx, symbol, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "load summary window")
	}

	p, err := s.scorer.Score(symbol, to, window)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, errors.Wrap(err, "upsert prediction")
	}

	metrics.RecordPrediction(p.PredictedDirection.String(), p.Confidence)
	s.log.Debugw("Prediction generated",
		"symbol", symbol,
		"date", calendar.Format(p.PredictionDate),
		"direction", p.PredictedDirection,
		"confidence", p.Confidence,
		"window", len(window),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishPredictionGenerated(ctx, p); err != nil {
			s.log.Warnw("Failed to publish prediction event", "symbol", symbol, "error", err)
		}
	}

	return p, nil
}

// GenerateAll scores every tracked symbol for date. Symbols without data or
// failing to score are skipped and reported; the rest are still written.
func (s *Service) GenerateAll(ctx context.Context, date time.Time) GenerateResult {
	result := GenerateResult{Skipped: make(map[string]error)}

	for _, symbol := range s.symbols {
		if ctx.Err() != nil {
			result.Skipped[symbol] = ctx.Err()
			continue
		}

		p, err := s.Generate(errors.WithSymbol(ctx, symbol), symbol, date)
		if err != nil {
			noData := errors.Is(err, errors.ErrNoData)
			metrics.RecordBatchSkip("predict", noData)
			if !noData {
				s.log.Warnw("Skipping symbol in prediction run", "symbol", symbol, "error", err)
			}
			result.Skipped[symbol] = err
			continue
		}
		result.Predictions = append(result.Predictions, *p)
	}

	return result
}

// Current returns all predictions for the day of date
func (s *Service) Current(ctx context.Context, date time.Time) ([]Prediction, error) {
	predictions, err := s.repo.ListByDate(ctx, calendar.Day(date))
	if err != nil {
		return nil, errors.Wrap(err, "list predictions")
	}
	return predictions, nil
}

// Get returns a prediction by id
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	if id == uuid.Nil {
		return nil, errors.Wrap(errors.ErrInvalidRequest, "prediction id is required")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "get prediction")
	}
	return p, nil
}

// ForDay returns the prediction for symbol on the day of date, or errors.ErrNotFound
func (s *Service) ForDay(ctx context.Context, symbol string, date time.Time) (*Prediction, error) {
	p, err := s.repo.GetBySymbolDate(ctx, strings.ToUpper(symbol), calendar.Day(date))
	if err != nil {
		return nil, err
	}
	return p, nil
}
