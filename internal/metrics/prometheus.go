package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockpulse_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockpulse_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Pipeline metrics
	PostsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_posts_ingested_total",
			Help: "Scored posts stored, by source",
		},
		[]string{"source"},
	)

	SummariesAggregated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_summaries_aggregated_total",
			Help: "Daily sentiment aggregations by outcome",
		},
		[]string{"status"}, // status: success|no_data|error
	)

	PredictionsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_predictions_generated_total",
			Help: "Predictions written, by direction",
		},
		[]string{"direction"},
	)

	PredictionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockpulse_prediction_confidence",
			Help:    "Distribution of prediction confidence",
			Buckets: []float64{0.5, 0.55, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95},
		},
	)

	BatchSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_batch_symbol_skips_total",
			Help: "Symbols skipped during a batch run",
		},
		[]string{"operation", "reason"}, // reason: no_data|error
	)

	VotesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_votes_cast_total",
			Help: "Votes cast, by type and whether an earlier vote was replaced",
		},
		[]string{"vote_type", "outcome"}, // outcome: recorded|updated
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockpulse_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockpulse_kafka_messages_total",
			Help: "Total Kafka messages",
		},
		[]string{"topic", "direction", "status"}, // direction: produced|consumed
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(PostsIngested)
	prometheus.MustRegister(SummariesAggregated)
	prometheus.MustRegister(PredictionsGenerated)
	prometheus.MustRegister(PredictionConfidence)
	prometheus.MustRegister(BatchSkips)
	prometheus.MustRegister(VotesCast)

	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)

	prometheus.MustRegister(KafkaMessages)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	WorkerExecutions.WithLabelValues(worker, status(err)).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordPrediction records one written prediction
func RecordPrediction(direction string, confidence float64) {
	PredictionsGenerated.WithLabelValues(direction).Inc()
	PredictionConfidence.Observe(confidence)
}

// RecordBatchSkip records a symbol skipped by a batch operation
func RecordBatchSkip(operation string, noData bool) {
	reason := "error"
	if noData {
		reason = "no_data"
	}
	BatchSkips.WithLabelValues(operation, reason).Inc()
}

// RecordVote records a cast vote
func RecordVote(voteType string, updated bool) {
	outcome := "recorded"
	if updated {
		outcome = "updated"
	}
	VotesCast.WithLabelValues(voteType, outcome).Inc()
}

// RecordKafkaMessage records a produced or consumed message
func RecordKafkaMessage(topic, direction string, err error) {
	KafkaMessages.WithLabelValues(topic, direction, status(err)).Inc()
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
