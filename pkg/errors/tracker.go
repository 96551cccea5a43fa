package errors

import (
	"context"
)

// Tracker reports errors and breadcrumbs to an external service such as Sentry
type Tracker interface {
	// CaptureError sends an error to the tracking service
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	// CaptureMessage sends a message to the tracking service
	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error

	// AddBreadcrumb records a step leading up to a possible error (batch run, vote cast)
	AddBreadcrumb(ctx context.Context, message string, category string, level Level, data map[string]interface{})

	// Flush waits for all pending events to be sent
	Flush(ctx context.Context) error
}

// Level represents the severity level of an error or message
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

func (l Level) String() string {
	return string(l)
}

type contextKey string

// SymbolContextKey tags captured errors with the symbol being processed
const SymbolContextKey contextKey = "symbol"

// WithSymbol attaches a ticker symbol to ctx for error tagging
func WithSymbol(ctx context.Context, symbol string) context.Context {
	return context.WithValue(ctx, SymbolContextKey, symbol)
}

// SymbolFrom returns the symbol stored by WithSymbol, if any
func SymbolFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(SymbolContextKey).(string)
	return s, ok
}
