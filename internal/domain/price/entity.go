package price

import (
	"time"

	"github.com/shopspring/decimal"

	"stockpulse/pkg/errors"
)

// Bar is one daily OHLCV bar. Natural key: (Symbol, Date).
type Bar struct {
	Symbol    string          `db:"symbol" json:"symbol"`
	Date      time.Time       `db:"date" json:"date"`
	Open      decimal.Decimal `db:"open_price" json:"open_price"`
	High      decimal.Decimal `db:"high_price" json:"high_price"`
	Low       decimal.Decimal `db:"low_price" json:"low_price"`
	Close     decimal.Decimal `db:"close_price" json:"close_price"`
	Volume    int64           `db:"volume" json:"volume"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Validate rejects bars that cannot be real market data
func (b *Bar) Validate() error {
	if b.Symbol == "" {
		return errors.NewValidationError("symbol", "is required", b.Symbol)
	}
	if b.Date.IsZero() {
		return errors.NewValidationError("date", "is required", b.Date)
	}
	if !b.Close.IsPositive() {
		return errors.Wrap(errors.ErrInvalidPrice, "close must be positive")
	}
	if b.Low.GreaterThan(b.High) {
		return errors.Wrap(errors.ErrInvalidPrice, "low above high")
	}
	if b.Volume < 0 {
		return errors.NewValidationError("volume", "must be non-negative", b.Volume)
	}
	return nil
}
