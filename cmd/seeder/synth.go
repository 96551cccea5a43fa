package main

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/pkg/calendar"
)

// Dataset is one generated batch of seed rows
type Dataset struct {
	Summaries []sentiment.Summary
	Bars      []price.Bar
}

// Synthesizer produces plausible summaries and price walks. The same seed
// and inputs always yield the same dataset.
type Synthesizer struct {
	rng *rand.Rand
}

func NewSynthesizer(seed uint64) *Synthesizer {
	return &Synthesizer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate builds `days` trailing days ending at today for every symbol.
// Symbols are processed in the given order, days ascending.
func (s *Synthesizer) Generate(symbols []string, today time.Time, days int) Dataset {
	today = calendar.Day(today)
	var ds Dataset
	for _, symbol := range symbols {
		ds.Summaries = append(ds.Summaries, s.summaries(symbol, today, days)...)
		ds.Bars = append(ds.Bars, s.bars(symbol, today, days)...)
	}
	return ds
}

func (s *Synthesizer) summaries(symbol string, today time.Time, days int) []sentiment.Summary {
	out := make([]sentiment.Summary, 0, days)
	for i := days - 1; i >= 0; i-- {
		avg := math.Max(-0.85, math.Min(0.85, 0.4+0.3*s.rng.NormFloat64()))
		avg = math.Round(avg*1000) / 1000
		posts := 2 + s.rng.IntN(10)

		var positive, negative int
		switch {
		case avg > 0.1:
			positive, negative = int(float64(posts)*0.65), int(float64(posts)*0.15)
		case avg < -0.1:
			positive, negative = int(float64(posts)*0.15), int(float64(posts)*0.65)
		default:
			positive, negative = int(float64(posts)*0.45), int(float64(posts)*0.25)
		}

		out = append(out, sentiment.Summary{
			Symbol:        symbol,
			Date:          today.AddDate(0, 0, -i),
			AvgSentiment:  avg,
			PostCount:     posts,
			PositiveCount: positive,
			NegativeCount: negative,
			NeutralCount:  posts - positive - negative,
		})
	}
	return out
}

// bars walks a price from a random base with ~2% daily volatility
func (s *Synthesizer) bars(symbol string, today time.Time, days int) []price.Bar {
	level := 50 + s.rng.Float64()*350
	out := make([]price.Bar, 0, days)
	for i := days - 1; i >= 0; i-- {
		level *= 1 + 0.02*s.rng.NormFloat64()
		level = math.Max(level, 1)

		closePrice := decimal.NewFromFloat(level)
		out = append(out, price.Bar{
			Symbol: symbol,
			Date:   today.AddDate(0, 0, -i),
			Open:   closePrice.Mul(decimal.RequireFromString("0.995")).Round(2),
			High:   closePrice.Mul(decimal.RequireFromString("1.01")).Round(2),
			Low:    closePrice.Mul(decimal.RequireFromString("0.99")).Round(2),
			Close:  closePrice.Round(2),
			Volume: 1_000_000 + s.rng.Int64N(5_000_000),
		})
	}
	return out
}
