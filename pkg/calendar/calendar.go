// Package calendar normalizes timestamps to UTC calendar days, the key
// granularity of every daily series in the service.
package calendar

import "time"

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Window returns the inclusive [from, to] day range covering the trailing
// `days` calendar days that end on the day of `end`. days < 1 is treated as 1.
func Window(end time.Time, days int) (from, to time.Time) {
	if days < 1 {
		days = 1
	}
	to = Day(end)
	from = to.AddDate(0, 0, -(days - 1))
	return from, to
}

// Format renders a day as YYYY-MM-DD
func Format(t time.Time) string {
	return Day(t).Format(time.DateOnly)
}

// Parse reads a YYYY-MM-DD day
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}
