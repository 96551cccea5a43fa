package prediction

import (
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"stockpulse/internal/domain/sentiment"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

// Signal holds the quantities derived from a summary window
type Signal struct {
	AvgSentiment float64
	Trend        float64
	TotalPosts   int
}

// DeriveSignal computes the window averages. summaries must be ascending by date.
func DeriveSignal(summaries []sentiment.Summary) (Signal, error) {
	if len(summaries) == 0 {
		return Signal{}, errors.ErrNoData
	}

	var sum float64
	var posts int
	for _, s := range summaries {
		sum += s.AvgSentiment
		posts += s.PostCount
	}

	var trend float64
	if len(summaries) > 1 {
		trend = summaries[len(summaries)-1].AvgSentiment - summaries[0].AvgSentiment
	}

	return Signal{
		AvgSentiment: sum / float64(len(summaries)),
		Trend:        trend,
		TotalPosts:   posts,
	}, nil
}

// RawConfidence is the additive confidence before clamping
func (c ScoringConfig) RawConfidence(sig Signal) float64 {
	sentimentFactor := math.Min(c.MaxSentimentFactor, math.Abs(sig.AvgSentiment)*c.SentimentWeight)
	trendFactor := math.Min(c.MaxTrendFactor, math.Abs(sig.Trend)*c.TrendWeight)
	volumeFactor := math.Min(c.MaxVolumeFactor, math.Max(0, float64(sig.TotalPosts-c.VolumeThreshold))*c.VolumeWeight)

	return c.BaseConfidence + sentimentFactor + trendFactor + volumeFactor
}

// Confidence is the deterministic, clamped confidence for a signal
func (c ScoringConfig) Confidence(sig Signal) float64 {
	return c.clamp(c.RawConfidence(sig))
}

// Direction applies the tie-break rules in order: strong positive, strong
// negative, then the sign of the average for the ambiguous zone.
func (c ScoringConfig) Direction(sig Signal) Direction {
	switch {
	case sig.AvgSentiment > c.SentimentThreshold && sig.Trend >= -c.TrendThreshold:
		return DirectionUp
	case sig.AvgSentiment < -c.SentimentThreshold && sig.Trend <= c.TrendThreshold:
		return DirectionDown
	case sig.AvgSentiment >= 0:
		return DirectionUp
	default:
		return DirectionDown
	}
}

func (c ScoringConfig) clamp(v float64) float64 {
	return math.Max(c.MinConfidence, math.Min(c.MaxConfidence, v))
}

// NoiseSource returns standard normal samples
type NoiseSource interface {
	NormFloat64() float64
}

// Scorer turns a summary window into a Prediction
type Scorer struct {
	cfg ScoringConfig

	mu    sync.Mutex
	noise NoiseSource
}

// ScorerOption customizes a Scorer
type ScorerOption func(*Scorer)

// WithNoiseSource sets the jitter source, e.g. a seeded *rand.Rand
func WithNoiseSource(src NoiseSource) ScorerOption {
	return func(s *Scorer) {
		s.noise = src
	}
}

// NewScorer creates a scorer. Jitter is drawn from a randomly seeded
// source unless WithNoiseSource is given.
func NewScorer(cfg ScoringConfig, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		cfg:   cfg,
		noise: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the scoring config
func (s *Scorer) Config() ScoringConfig {
	return s.cfg
}

// Score builds the prediction for symbol on date from its summary window.
// Returns errors.ErrNoData for an empty window.
func (s *Scorer) Score(symbol string, date time.Time, summaries []sentiment.Summary) (*Prediction, error) {
	ordered := make([]sentiment.Summary, len(summaries))
	copy(ordered, summaries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	sig, err := DeriveSignal(ordered)
	if err != nil {
		return nil, errors.Wrapf(err, "score %s", symbol)
	}

	confidence := s.cfg.RawConfidence(sig)
	if s.cfg.JitterStdDev > 0 {
		confidence = s.cfg.clamp(confidence)
		confidence += s.jitter()
	}

	return &Prediction{
		Symbol:             symbol,
		PredictionDate:     calendar.Day(date),
		PredictedDirection: s.cfg.Direction(sig),
		Confidence:         s.cfg.clamp(confidence),
		SentimentScore:     sig.AvgSentiment,
	}, nil
}

func (s *Scorer) jitter() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.noise.NormFloat64() * s.cfg.JitterStdDev
}
