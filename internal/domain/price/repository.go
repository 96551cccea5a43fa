package price

import (
	"context"
	"time"
)

// Repository stores daily bars keyed by (symbol, date)
type Repository interface {
	// UpsertBar inserts or refreshes the bar for its key
	UpsertBar(ctx context.Context, bar *Bar) error
	// LatestBar returns errors.ErrNotFound when the symbol has no bars
	LatestBar(ctx context.Context, symbol string) (*Bar, error)
	// ListBars returns bars with from <= date <= to, ascending by date
	ListBars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
}
