package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockpulse/pkg/errors"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrNotFound), errors.Is(err, errors.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Server errors are logged and their
// text is not echoed back to the client.
func (h *Handlers) respondError(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.log.Errorw("Request failed", "route", c.FullPath(), "error", err)
		c.JSON(code, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
