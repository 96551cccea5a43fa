package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type voterLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// VoterLimiter keeps one token bucket per voter id
type VoterLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*voterLimiter
	limit     rate.Limit
	burst     int
	lastPrune time.Time
}

// NewVoterLimiter creates a limiter allowing perMinute votes per voter with the given burst
func NewVoterLimiter(perMinute float64, burst int) *VoterLimiter {
	if burst < 1 {
		burst = 1
	}
	return &VoterLimiter{
		limiters:  make(map[string]*voterLimiter),
		limit:     rate.Limit(perMinute / 60.0),
		burst:     burst,
		lastPrune: time.Now(),
	}
}

// Allow reports whether voter may cast another vote now
func (l *VoterLimiter) Allow(voter string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastPrune) > limiterIdleTTL {
		l.prune(now)
	}

	vl, ok := l.limiters[voter]
	if !ok {
		vl = &voterLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[voter] = vl
	}
	vl.lastSeen = now
	return vl.limiter.AllowN(now, 1)
}

// Len returns the number of tracked voters
func (l *VoterLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

func (l *VoterLimiter) prune(now time.Time) {
	for voter, vl := range l.limiters {
		if now.Sub(vl.lastSeen) > limiterIdleTTL {
			delete(l.limiters, voter)
		}
	}
	l.lastPrune = now
}

// Middleware rejects requests over the voter's budget with 429
func (l *VoterLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(voterID(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many votes, slow down"})
			return
		}
		c.Next()
	}
}

// voterID identifies an anonymous voter by the proxy-supplied address,
// falling back to the connection's client IP.
func voterID(c *gin.Context) string {
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
