package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CompareRequest is the body of POST /compare/stocks
type CompareRequest struct {
	Symbols []string `json:"symbols" binding:"required"`
	Days    int      `json:"days"`
}

func (h *Handlers) CompareStocks(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Days < 0 {
		badRequest(c, "days must not be negative")
		return
	}

	cmp, err := h.svc.Analytics.Compare(c.Request.Context(), req.Symbols, req.Days, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

// CompareMetrics runs the comparison over the default window and drops the histories
func (h *Handlers) CompareMetrics(c *gin.Context) {
	symbols := strings.Split(c.Param("symbols"), ",")

	cmp, err := h.svc.Analytics.Compare(c.Request.Context(), symbols, 0, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	for i := range cmp.Stocks {
		cmp.Stocks[i].SentimentHistory = nil
		cmp.Stocks[i].PriceHistory = nil
	}
	c.JSON(http.StatusOK, gin.H{"metrics": cmp.Stocks, "period": cmp.Period, "days": cmp.Days})
}
