package prediction

import (
	"stockpulse/pkg/errors"
)

// ScoringConfig holds every constant of the confidence/direction heuristic.
// One value is built at startup and shared by all call sites (API, workers, seeder).
type ScoringConfig struct {
	WindowDays int `envconfig:"SCORING_WINDOW_DAYS" default:"7"`

	BaseConfidence float64 `envconfig:"SCORING_BASE_CONFIDENCE" default:"0.55"`

	SentimentWeight    float64 `envconfig:"SCORING_SENTIMENT_WEIGHT" default:"0.4"`
	MaxSentimentFactor float64 `envconfig:"SCORING_MAX_SENTIMENT_FACTOR" default:"0.25"`

	TrendWeight    float64 `envconfig:"SCORING_TREND_WEIGHT" default:"0.3"`
	MaxTrendFactor float64 `envconfig:"SCORING_MAX_TREND_FACTOR" default:"0.15"`

	VolumeThreshold int     `envconfig:"SCORING_VOLUME_THRESHOLD" default:"3"`
	VolumeWeight    float64 `envconfig:"SCORING_VOLUME_WEIGHT" default:"0.02"`
	MaxVolumeFactor float64 `envconfig:"SCORING_MAX_VOLUME_FACTOR" default:"0.05"`

	SentimentThreshold float64 `envconfig:"SCORING_SENTIMENT_THRESHOLD" default:"0.1"`
	TrendThreshold     float64 `envconfig:"SCORING_TREND_THRESHOLD" default:"0.1"`

	MinConfidence float64 `envconfig:"SCORING_MIN_CONFIDENCE" default:"0.52"`
	MaxConfidence float64 `envconfig:"SCORING_MAX_CONFIDENCE" default:"0.95"`

	// JitterStdDev > 0 adds zero-mean normal noise to confidence before the final clamp
	JitterStdDev float64 `envconfig:"SCORING_JITTER_STDDEV" default:"0"`
}

// DefaultScoringConfig returns the reference weights with jitter disabled
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		WindowDays:         7,
		BaseConfidence:     0.55,
		SentimentWeight:    0.4,
		MaxSentimentFactor: 0.25,
		TrendWeight:        0.3,
		MaxTrendFactor:     0.15,
		VolumeThreshold:    3,
		VolumeWeight:       0.02,
		MaxVolumeFactor:    0.05,
		SentimentThreshold: 0.1,
		TrendThreshold:     0.1,
		MinConfidence:      0.52,
		MaxConfidence:      0.95,
	}
}

// Validate checks the config for values that would break the clamp or window
func (c ScoringConfig) Validate() error {
	if c.WindowDays < 1 {
		return errors.NewValidationError("window_days", "must be at least 1", c.WindowDays)
	}
	if c.MinConfidence < 0 || c.MaxConfidence > 1 || c.MinConfidence > c.MaxConfidence {
		return errors.NewValidationError("confidence_range", "must satisfy 0 <= min <= max <= 1",
			[2]float64{c.MinConfidence, c.MaxConfidence})
	}
	if c.JitterStdDev < 0 {
		return errors.NewValidationError("jitter_stddev", "must be non-negative", c.JitterStdDev)
	}
	for name, v := range map[string]float64{
		"sentiment_weight":     c.SentimentWeight,
		"max_sentiment_factor": c.MaxSentimentFactor,
		"trend_weight":         c.TrendWeight,
		"max_trend_factor":     c.MaxTrendFactor,
		"volume_weight":        c.VolumeWeight,
		"max_volume_factor":    c.MaxVolumeFactor,
		"sentiment_threshold":  c.SentimentThreshold,
		"trend_threshold":      c.TrendThreshold,
	} {
		if v < 0 {
			return errors.NewValidationError(name, "must be non-negative", v)
		}
	}
	return nil
}
