package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/pkg/calendar"
)

// ListStocks returns the tracked symbols
func (h *Handlers) ListStocks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stocks": h.svc.Sentiment.Symbols()})
}

// CurrentSentiment returns today's summary per symbol, zero-filled when missing
func (h *Handlers) CurrentSentiment(c *gin.Context) {
	summaries, err := h.svc.Sentiment.Current(c.Request.Context(), h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sentiment_data": summaries})
}

// SentimentHistory returns summaries for the last `days` calendar days
// including today, so days=7 spans today-6 through today.
func (h *Handlers) SentimentHistory(c *gin.Context) {
	days, ok := queryInt(c, "days", defaultHistoryDays)
	if !ok {
		badRequest(c, "days must be a positive integer")
		return
	}
	symbol := sentiment.NormalizeSymbol(c.Param("symbol"))
	history, err := h.svc.Sentiment.History(c.Request.Context(), symbol, days, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "history": history})
}

func (h *Handlers) CurrentPrices(c *gin.Context) {
	bars, err := h.svc.Prices.Current(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prices": bars})
}

// PriceHistory returns bars over the same inclusive window as SentimentHistory
func (h *Handlers) PriceHistory(c *gin.Context) {
	days, ok := queryInt(c, "days", defaultHistoryDays)
	if !ok {
		badRequest(c, "days must be a positive integer")
		return
	}
	symbol := sentiment.NormalizeSymbol(c.Param("symbol"))
	history, err := h.svc.Prices.History(c.Request.Context(), symbol, days, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "history": history})
}

// SavePricesRequest is the body of POST /prices
type SavePricesRequest struct {
	Prices []price.Bar `json:"prices" binding:"required"`
}

func (h *Handlers) SavePrices(c *gin.Context) {
	var req SavePricesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Prices) == 0 {
		badRequest(c, "prices must not be empty")
		return
	}
	if err := h.svc.Prices.Save(c.Request.Context(), req.Prices); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": len(req.Prices)})
}

// IngestPostsRequest is the body of POST /posts
type IngestPostsRequest struct {
	Posts []sentiment.Post `json:"posts" binding:"required"`
}

// IngestPosts stores scored posts and returns the re-aggregated summaries
func (h *Handlers) IngestPosts(c *gin.Context) {
	var req IngestPostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Posts) == 0 {
		badRequest(c, "posts must not be empty")
		return
	}
	summaries, err := h.svc.Sentiment.Ingest(c.Request.Context(), req.Posts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ingested": len(req.Posts), "summaries": summaries})
}

func (h *Handlers) RecentPosts(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		badRequest(c, "limit must be a positive integer")
		return
	}
	posts, err := h.svc.Sentiment.RecentPosts(c.Request.Context(), c.Query("symbol"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// CorrelationRow is one joined (date, sentiment, close) sample
type CorrelationRow struct {
	Date           string  `json:"date"`
	SentimentScore float64 `json:"sentiment_score"`
	ClosePrice     float64 `json:"close_price"`
	PostCount      int     `json:"post_count"`
}

// Correlation returns the dates that have both a summary and a price bar
func (h *Handlers) Correlation(c *gin.Context) {
	days, ok := queryInt(c, "days", defaultHistoryDays)
	if !ok {
		badRequest(c, "days must be a positive integer")
		return
	}
	symbol := sentiment.NormalizeSymbol(c.Param("symbol"))
	points, err := h.svc.Analytics.Correlation(c.Request.Context(), symbol, days, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}

	rows := make([]CorrelationRow, 0)
	for p := range points {
		rows = append(rows, CorrelationRow{
			Date:           calendar.Format(p.Date),
			SentimentScore: p.AvgSentiment,
			ClosePrice:     p.ClosePrice.InexactFloat64(),
			PostCount:      p.PostCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "correlation_data": rows})
}

// AnalyticsSummary returns the trailing-week rollup per tracked symbol
func (h *Handlers) AnalyticsSummary(c *gin.Context) {
	summary, err := h.svc.Analytics.Summary(c.Request.Context(), h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}

	total := 0
	for _, s := range summary {
		total += s.TotalPosts
	}
	c.JSON(http.StatusOK, gin.H{
		"total_posts":        total,
		"average_sentiments": summary,
	})
}
