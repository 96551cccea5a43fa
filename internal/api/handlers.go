package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/domain/vote"
	"stockpulse/internal/services/analytics"
	"stockpulse/pkg/logger"
)

const defaultHistoryDays = 30

// Services bundles the domain services the HTTP layer calls into
type Services struct {
	Sentiment   *sentiment.Service
	Prices      *price.Service
	Predictions *prediction.Service
	Votes       *vote.Service
	Analytics   *analytics.Service
}

// Handlers implements the /api/v1 routes
type Handlers struct {
	svc Services
	now func() time.Time
	log *logger.Logger
}

// NewHandlers creates route handlers over svc
func NewHandlers(svc Services) *Handlers {
	return &Handlers{
		svc: svc,
		now: func() time.Time { return time.Now().UTC() },
		log: logger.Get().With("component", "http_api"),
	}
}

// queryInt reads a positive integer query parameter, falling back to def
// when it is absent. ok is false when the value is present but malformed.
func queryInt(c *gin.Context, key string, def int) (value int, ok bool) {
	raw, present := c.GetQuery(key)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
