package analytics

import (
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
)

// CorrelationPoint is one date present in both the sentiment and price series
type CorrelationPoint struct {
	Date         time.Time
	AvgSentiment float64
	ClosePrice   decimal.Decimal
	PostCount    int
}

// Join inner-joins two ascending series by date. Dates present on only one
// side are dropped; nothing is interpolated. The sequence is lazy and
// yields ascending dates.
func Join(summaries []sentiment.Summary, bars []price.Bar) iter.Seq[CorrelationPoint] {
	return func(yield func(CorrelationPoint) bool) {
		i, j := 0, 0
		for i < len(summaries) && j < len(bars) {
			sd, bd := summaries[i].Date, bars[j].Date
			switch {
			case sd.Before(bd):
				i++
			case bd.Before(sd):
				j++
			default:
				point := CorrelationPoint{
					Date:         sd,
					AvgSentiment: summaries[i].AvgSentiment,
					ClosePrice:   bars[j].Close,
					PostCount:    summaries[i].PostCount,
				}
				if !yield(point) {
					return
				}
				i++
				j++
			}
		}
	}
}
