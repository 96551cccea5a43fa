package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockpulse/internal/api/health"
	"stockpulse/internal/metrics"
	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

// ServerConfig contains configuration for HTTP server
type ServerConfig struct {
	Port         int
	ServiceName  string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Per-voter budget on the vote route; zero disables limiting
	VoteRatePerMinute float64
	VoteBurst         int
	// Mode is passed to gin.SetMode when set (debug, release, test)
	Mode string
}

// Server wraps HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	log        *logger.Logger
}

// NewServer creates and configures HTTP server with all routes
func NewServer(cfg ServerConfig, handlers *Handlers, healthHandler *health.Handler) *Server {
	log := logger.Get().With("component", "http_server")
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	engine := gin.New()
	engine.Use(recovery(log), requestMetrics(), requestLogger(log))

	// Health check endpoints (Kubernetes probes)
	engine.GET("/health", healthHandler.HandleHealth)
	engine.GET("/ready", healthHandler.HandleReadiness)
	engine.GET("/live", healthHandler.HandleLiveness)

	// Prometheus metrics endpoint
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Root endpoint (service info)
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.ServiceName,
			"version": cfg.Version,
			"status":  "running",
		})
	})

	var voteLimiter *VoterLimiter
	if cfg.VoteRatePerMinute > 0 {
		voteLimiter = NewVoterLimiter(cfg.VoteRatePerMinute, cfg.VoteBurst)
	}
	registerRoutes(engine.Group("/api/v1"), handlers, voteLimiter)

	port := 8080
	if cfg.Port > 0 {
		port = cfg.Port
	}
	readTimeout, writeTimeout := cfg.ReadTimeout, cfg.WriteTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		log:        log,
	}
}

func registerRoutes(v1 *gin.RouterGroup, h *Handlers, voteLimiter *VoterLimiter) {
	v1.GET("/stocks", h.ListStocks)

	v1.GET("/sentiment/current", h.CurrentSentiment)
	v1.GET("/sentiment/history/:symbol", h.SentimentHistory)

	v1.GET("/prices/current", h.CurrentPrices)
	v1.GET("/prices/history/:symbol", h.PriceHistory)
	v1.POST("/prices", h.SavePrices)

	v1.POST("/posts", h.IngestPosts)
	v1.GET("/posts/recent", h.RecentPosts)

	v1.GET("/correlation/:symbol", h.Correlation)

	predictions := v1.Group("/predictions")
	predictions.GET("/current", h.CurrentPredictions)
	predictions.GET("/current/with-votes", h.CurrentPredictionsWithVotes)
	predictions.POST("/generate", h.GeneratePredictions)
	if voteLimiter != nil {
		predictions.POST("/:id/vote", voteLimiter.Middleware(), h.CastVote)
	} else {
		predictions.POST("/:id/vote", h.CastVote)
	}
	predictions.GET("/:id/votes", h.VoteStats)

	v1.POST("/compare/stocks", h.CompareStocks)
	v1.GET("/compare/metrics/:symbols", h.CompareMetrics)

	v1.GET("/analytics/summary", h.AnalyticsSummary)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins listening for HTTP requests
// Blocks until server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
