package postgres

import (
	"context"
	"database/sql"
	"time"

	"stockpulse/internal/domain/price"
	"stockpulse/pkg/calendar"
	"stockpulse/pkg/errors"
)

// Compile-time check
var _ price.Repository = (*PriceRepository)(nil)

// PriceRepository implements price.Repository using sqlx
type PriceRepository struct {
	db DBTX
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db DBTX) *PriceRepository {
	return &PriceRepository{db: db}
}

const barColumns = `symbol, date, open_price, high_price, low_price, close_price, volume, updated_at`

// UpsertBar inserts the bar or refreshes the existing one for (symbol, date)
func (r *PriceRepository) UpsertBar(ctx context.Context, bar *price.Bar) error {
	query := `
		INSERT INTO stock_prices (` + barColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (symbol, date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			volume = EXCLUDED.volume,
			updated_at = NOW()
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		bar.Symbol, calendar.Day(bar.Date), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
	).Scan(&bar.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "upsert bar %s %s", bar.Symbol, calendar.Format(bar.Date))
	}
	return nil
}

// LatestBar returns the most recent bar for symbol
func (r *PriceRepository) LatestBar(ctx context.Context, symbol string) (*price.Bar, error) {
	var bar price.Bar

	query := `SELECT ` + barColumns + ` FROM stock_prices WHERE symbol = $1 ORDER BY date DESC LIMIT 1`

	if err := r.db.GetContext(ctx, &bar, query, symbol); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, "get latest bar")
	}
	bar.Date = utcDay(bar.Date)
	return &bar, nil
}

// ListBars returns bars in the inclusive date range, oldest first
func (r *PriceRepository) ListBars(ctx context.Context, symbol string, from, to time.Time) ([]price.Bar, error) {
	bars := make([]price.Bar, 0)

	query := `
		SELECT ` + barColumns + ` FROM stock_prices
		WHERE symbol = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC`

	if err := r.db.SelectContext(ctx, &bars, query, symbol, calendar.Day(from), calendar.Day(to)); err != nil {
		return nil, errors.Wrap(err, "list bars")
	}
	for i := range bars {
		bars[i].Date = utcDay(bars[i].Date)
	}
	return bars, nil
}
