package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/vote"
	"stockpulse/pkg/calendar"
)

func (h *Handlers) CurrentPredictions(c *gin.Context) {
	predictions, err := h.svc.Predictions.Current(c.Request.Context(), h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

// PredictionWithVotes is a prediction plus its current tally
type PredictionWithVotes struct {
	prediction.Prediction
	VoteStats vote.Stats `json:"vote_stats"`
}

func (h *Handlers) CurrentPredictionsWithVotes(c *gin.Context) {
	ctx := c.Request.Context()
	predictions, err := h.svc.Predictions.Current(ctx, h.now())
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]PredictionWithVotes, 0, len(predictions))
	for _, p := range predictions {
		stats, err := h.svc.Votes.Stats(ctx, p.ID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		out = append(out, PredictionWithVotes{Prediction: p, VoteStats: stats})
	}
	c.JSON(http.StatusOK, gin.H{"predictions": out})
}

// GeneratePredictions scores every tracked symbol for today
func (h *Handlers) GeneratePredictions(c *gin.Context) {
	now := h.now()
	result := h.svc.Predictions.GenerateAll(c.Request.Context(), now)

	skipped := make(map[string]string, len(result.Skipped))
	for symbol, err := range result.Skipped {
		skipped[symbol] = err.Error()
	}
	predictions := result.Predictions
	if predictions == nil {
		predictions = []prediction.Prediction{}
	}
	c.JSON(http.StatusOK, gin.H{
		"date":        calendar.Format(now),
		"generated":   len(predictions),
		"predictions": predictions,
		"skipped":     skipped,
	})
}

// VoteRequest is the body of POST /predictions/:id/vote
type VoteRequest struct {
	VoteType string `json:"vote_type"`
}

func (h *Handlers) CastVote(c *gin.Context) {
	id, ok := predictionID(c)
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Votes.Cast(c.Request.Context(), id, voterID(c), vote.Type(req.VoteType))
	if err != nil {
		h.respondError(c, err)
		return
	}

	message := "Vote updated successfully"
	if result.Created {
		message = "Vote recorded successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    message,
		"created":    result.Created,
		"vote_type":  result.Vote.VoteType,
		"vote_stats": result.Stats,
	})
}

// VoteStats returns the tally for a prediction. Unknown ids yield zeros.
func (h *Handlers) VoteStats(c *gin.Context) {
	id, ok := predictionID(c)
	if !ok {
		return
	}
	stats, err := h.svc.Votes.Stats(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func predictionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		badRequest(c, "prediction id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}
