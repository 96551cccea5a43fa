package sentiment

import (
	"time"

	"stockpulse/pkg/calendar"
)

// Aggregate reduces the scores of one (symbol, day) into a Summary.
// ok is false for an empty score set: no summary exists for that key.
func Aggregate(symbol string, date time.Time, scores []float64) (summary Summary, ok bool) {
	if len(scores) == 0 {
		return Summary{}, false
	}

	var sum float64
	var positive, negative int
	for _, score := range scores {
		sum += score
		switch Classify(score) {
		case LabelPositive:
			positive++
		case LabelNegative:
			negative++
		}
	}

	count := len(scores)
	return Summary{
		Symbol:        symbol,
		Date:          calendar.Day(date),
		AvgSentiment:  sum / float64(count),
		PostCount:     count,
		PositiveCount: positive,
		NegativeCount: negative,
		NeutralCount:  count - positive - negative,
	}, true
}
