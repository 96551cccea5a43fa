package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

const (
	MinCompareSymbols = 2
	MaxCompareSymbols = 4
)

// PredictionRef is the current-day prediction attached to a comparison.
// Both fields are nil when there is no prediction for today.
type PredictionRef struct {
	Direction  *prediction.Direction `json:"direction"`
	Confidence *float64              `json:"confidence"`
}

// SentimentPoint is one entry of a comparison's sentiment history
type SentimentPoint struct {
	Date      string  `json:"date"`
	Sentiment float64 `json:"sentiment"`
	PostCount int     `json:"post_count"`
}

// PricePoint is one entry of a comparison's price history
type PricePoint struct {
	Date       string  `json:"date"`
	ClosePrice float64 `json:"close_price"`
	Volume     int64   `json:"volume"`
}

// SymbolComparison holds per-symbol metrics in the symbol's own currency units
type SymbolComparison struct {
	Symbol             string           `json:"symbol"`
	CurrentSentiment   float64          `json:"current_sentiment"`
	AverageSentiment   float64          `json:"average_sentiment"`
	CurrentPrice       float64          `json:"current_price"`
	PriceChange        float64          `json:"price_change"`
	PriceChangePercent float64          `json:"price_change_percent"`
	TotalPosts         int              `json:"total_posts"`
	Prediction         PredictionRef    `json:"prediction"`
	SentimentHistory   []SentimentPoint `json:"sentiment_history,omitempty"`
	PriceHistory       []PricePoint     `json:"price_history,omitempty"`
}

// Comparison is the result of comparing several symbols over one window
type Comparison struct {
	Stocks []SymbolComparison `json:"stocks"`
	Period string             `json:"period"`
	Days   int                `json:"days"`
}

// NormalizeSymbols upper-cases, trims and de-duplicates symbols, keeping order
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = sentiment.NormalizeSymbol(s)
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

// Compare computes metrics for 2 to 4 symbols over the trailing days ending at now.
// Each symbol is evaluated independently and nothing is rebased across symbols.
func (s *Service) Compare(ctx context.Context, symbols []string, days int, now time.Time) (*Comparison, error) {
	symbols = NormalizeSymbols(symbols)
	if len(symbols) < MinCompareSymbols || len(symbols) > MaxCompareSymbols {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "compare needs %d to %d distinct symbols, got %d",
			MinCompareSymbols, MaxCompareSymbols, len(symbols))
	}
	days = s.clampDays(days)

	out := &Comparison{
		Stocks: make([]SymbolComparison, 0, len(symbols)),
		Period: fmt.Sprintf("%d days", days),
		Days:   days,
	}
	for _, symbol := range symbols {
		cmp, err := s.compareSymbol(ctx, symbol, days, now)
		if err != nil {
			return nil, errors.Wrapf(err, "compare %s", symbol)
		}
		out.Stocks = append(out.Stocks, *cmp)
	}
	return out, nil
}

func (s *Service) compareSymbol(ctx context.Context, symbol string, days int, now time.Time) (*SymbolComparison, error) {
	from, to := calendar.Window(now, days)

	summaries, err := s.summaries.ListSummaries(ctx, symbol, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list summaries")
	}
	bars, err := s.prices.ListBars(ctx, symbol, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list bars")
	}

	cmp := &SymbolComparison{
		Symbol:           symbol,
		SentimentHistory: make([]SentimentPoint, 0, len(summaries)),
		PriceHistory:     make([]PricePoint, 0, len(bars)),
	}

	var sum float64
	for _, row := range summaries {
		sum += row.AvgSentiment
		cmp.TotalPosts += row.PostCount
		cmp.SentimentHistory = append(cmp.SentimentHistory, SentimentPoint{
			Date:      calendar.Format(row.Date),
			Sentiment: row.AvgSentiment,
			PostCount: row.PostCount,
		})
	}
	if len(summaries) > 0 {
		avg := decimal.NewFromFloat(sum / float64(len(summaries)))
		cmp.AverageSentiment = avg.Round(3).InexactFloat64()
		cmp.CurrentSentiment = summaries[len(summaries)-1].AvgSentiment
	}

	for _, bar := range bars {
		cmp.PriceHistory = append(cmp.PriceHistory, PricePoint{
			Date:       calendar.Format(bar.Date),
			ClosePrice: bar.Close.InexactFloat64(),
			Volume:     bar.Volume,
		})
	}
	if len(bars) > 0 {
		cmp.CurrentPrice = bars[len(bars)-1].Close.InexactFloat64()
	}
	change, pct := PriceChange(bars)
	cmp.PriceChange = change.Round(2).InexactFloat64()
	cmp.PriceChangePercent = pct.Round(2).InexactFloat64()

	p, err := s.predictions.GetBySymbolDate(ctx, symbol, calendar.Day(now))
	switch {
	case errors.Is(err, errors.ErrNotFound):
	case err != nil:
		return nil, errors.Wrap(err, "get prediction")
	default:
		direction, confidence := p.PredictedDirection, p.Confidence
		cmp.Prediction = PredictionRef{Direction: &direction, Confidence: &confidence}
	}

	return cmp, nil
}

// PriceChange returns last-first close and its percentage of the first close.
// Both are zero with fewer than two bars.
func PriceChange(bars []price.Bar) (change, percent decimal.Decimal) {
	if len(bars) < 2 {
		return decimal.Zero, decimal.Zero
	}
	first, last := bars[0].Close, bars[len(bars)-1].Close
	change = last.Sub(first)
	if first.IsZero() {
		return change, decimal.Zero
	}
	percent = change.Div(first).Mul(decimal.NewFromInt(100))
	return change, percent
}
