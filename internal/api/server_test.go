package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/api"
	"stockpulse/internal/api/health"
	"stockpulse/internal/domain/prediction"
	"stockpulse/internal/domain/price"
	"stockpulse/internal/domain/sentiment"
	"stockpulse/internal/domain/vote"
	"stockpulse/internal/repository/memory"
	"stockpulse/internal/services/analytics"
	"stockpulse/internal/testsupport"
	"stockpulse/pkg/calendar"
)

var testSymbols = []string{"AAPL", "MSFT", "TSLA"}

type testEnv struct {
	store  *memory.Store
	router http.Handler
	today  time.Time
}

func newTestEnv(t *testing.T, cfg api.ServerConfig) *testEnv {
	t.Helper()
	store := memory.NewStore()

	svc := api.Services{
		Sentiment: sentiment.NewService(store.Summaries(), store.Posts(), testSymbols),
		Prices:    price.NewService(store.Prices(), testSymbols),
		Predictions: prediction.NewService(store.Predictions(), store.Summaries(),
			prediction.NewScorer(prediction.DefaultScoringConfig()), testSymbols, nil),
		Votes: vote.NewService(store.Votes(), store.Predictions(), nil),
		Analytics: analytics.NewService(store.Summaries(), store.Prices(), store.Predictions(), nil,
			analytics.Config{Symbols: testSymbols, SummaryDays: 7}),
	}

	cfg.Mode = gin.TestMode
	server := api.NewServer(cfg, api.NewHandlers(svc), health.New("stockpulse", "test"))
	return &testEnv{store: store, router: server.Handler(), today: calendar.Day(time.Now().UTC())}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func (e *testEnv) seedSummary(t *testing.T, symbol string, daysAgo int, avg float64, posts int) {
	t.Helper()
	s := sentiment.Summary{
		Symbol:       symbol,
		Date:         e.today.AddDate(0, 0, -daysAgo),
		AvgSentiment: avg,
		PostCount:    posts,
	}
	require.NoError(t, e.store.Summaries().UpsertSummary(context.Background(), &s))
}

func (e *testEnv) seedBar(t *testing.T, symbol string, daysAgo int, closePrice float64) {
	t.Helper()
	c := decimal.NewFromFloat(closePrice)
	bar := price.Bar{
		Symbol: symbol,
		Date:   e.today.AddDate(0, 0, -daysAgo),
		Open:   c, High: c, Low: c, Close: c,
		Volume: 1000,
	}
	require.NoError(t, e.store.Prices().UpsertBar(context.Background(), &bar))
}

func (e *testEnv) seedPrediction(t *testing.T, symbol string) uuid.UUID {
	t.Helper()
	p := prediction.Prediction{
		ID:                 uuid.New(),
		Symbol:             symbol,
		PredictionDate:     e.today,
		PredictedDirection: prediction.DirectionUp,
		Confidence:         0.7,
	}
	require.NoError(t, e.store.Predictions().Upsert(context.Background(), &p))
	return p.ID
}

func TestServer_ServiceEndpoints(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})

	for _, path := range []string{"/", "/live", "/health", "/ready", "/metrics"} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServer_ListStocks(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})

	rec := env.do(t, http.MethodGet, "/api/v1/stocks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stocks []string `json:"stocks"`
	}
	decode(t, rec, &body)
	assert.Equal(t, testSymbols, body.Stocks)
}

func TestServer_CurrentSentimentFillsPlaceholders(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	env.seedSummary(t, "AAPL", 0, 0.4, 12)

	rec := env.do(t, http.MethodGet, "/api/v1/sentiment/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SentimentData []sentiment.Summary `json:"sentiment_data"`
	}
	decode(t, rec, &body)
	require.Len(t, body.SentimentData, len(testSymbols))

	bySymbol := make(map[string]sentiment.Summary)
	for _, s := range body.SentimentData {
		bySymbol[s.Symbol] = s
	}
	assert.Equal(t, 12, bySymbol["AAPL"].PostCount)
	assert.InDelta(t, 0.4, bySymbol["AAPL"].AvgSentiment, 1e-9)
	assert.Zero(t, bySymbol["MSFT"].PostCount)
	assert.Zero(t, bySymbol["TSLA"].AvgSentiment)
}

func TestServer_IngestPostsAggregates(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	posts := testsupport.NewPostFixture().WithSymbol("aapl").BuildScores(0.5, 0.3, -0.2)

	rec := env.do(t, http.MethodPost, "/api/v1/posts", gin.H{"posts": posts})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Ingested  int                 `json:"ingested"`
		Summaries []sentiment.Summary `json:"summaries"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 3, body.Ingested)
	require.Len(t, body.Summaries, 1)
	assert.Equal(t, "AAPL", body.Summaries[0].Symbol)
	assert.Equal(t, 3, body.Summaries[0].PostCount)
	assert.Equal(t, 2, body.Summaries[0].PositiveCount)

	rec = env.do(t, http.MethodGet, "/api/v1/posts/recent?symbol=AAPL&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recent struct {
		Posts []sentiment.Post `json:"posts"`
	}
	decode(t, rec, &recent)
	assert.Len(t, recent.Posts, 2)
}

func TestServer_IngestPostsRejectsBadScore(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	post := testsupport.NewPostFixture().WithScore(1.5).Build()

	rec := env.do(t, http.MethodPost, "/api/v1/posts", gin.H{"posts": []sentiment.Post{post}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/posts", gin.H{"posts": []sentiment.Post{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_SavePrices(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	day := calendar.Format(env.today)

	tests := []struct {
		name     string
		bar      gin.H
		wantCode int
	}{
		{
			name:     "valid bar",
			bar:      gin.H{"symbol": "aapl", "date": day + "T00:00:00Z", "open_price": 100, "high_price": 105, "low_price": 99, "close_price": 104, "volume": 5000},
			wantCode: http.StatusOK,
		},
		{
			name:     "zero close",
			bar:      gin.H{"symbol": "AAPL", "date": day + "T00:00:00Z", "open_price": 100, "high_price": 105, "low_price": 99, "close_price": 0, "volume": 5000},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "low above high",
			bar:      gin.H{"symbol": "AAPL", "date": day + "T00:00:00Z", "open_price": 100, "high_price": 99, "low_price": 105, "close_price": 100, "volume": 5000},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/prices", gin.H{"prices": []gin.H{tt.bar}})
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/prices/history/aapl?days=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Symbol  string      `json:"symbol"`
		History []price.Bar `json:"history"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "AAPL", body.Symbol)
	require.Len(t, body.History, 1)
	assert.True(t, decimal.NewFromInt(104).Equal(body.History[0].Close))

	rec = env.do(t, http.MethodGet, "/api/v1/prices/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current struct {
		Prices []price.Bar `json:"prices"`
	}
	decode(t, rec, &current)
	assert.Len(t, current.Prices, 1)
}

func TestServer_HistoryWindowIncludesToday(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	for _, ago := range []int{0, 6, 7} {
		env.seedSummary(t, "AAPL", ago, 0.2, 3)
		env.seedBar(t, "AAPL", ago, 100)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/sentiment/history/AAPL?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sentimentBody struct {
		History []sentiment.Summary `json:"history"`
	}
	decode(t, rec, &sentimentBody)
	require.Len(t, sentimentBody.History, 2)
	assert.True(t, env.today.AddDate(0, 0, -6).Equal(sentimentBody.History[0].Date))
	assert.True(t, env.today.Equal(sentimentBody.History[1].Date))

	rec = env.do(t, http.MethodGet, "/api/v1/prices/history/AAPL?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var priceBody struct {
		History []price.Bar `json:"history"`
	}
	decode(t, rec, &priceBody)
	assert.Len(t, priceBody.History, 2)
}

func TestServer_HistoryRejectsBadDays(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})

	for _, path := range []string{
		"/api/v1/sentiment/history/AAPL?days=abc",
		"/api/v1/prices/history/AAPL?days=-3",
		"/api/v1/correlation/AAPL?days=0",
	} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestServer_CorrelationJoinsOnDate(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	env.seedSummary(t, "AAPL", 2, 0.2, 5)
	env.seedSummary(t, "AAPL", 1, 0.3, 6)
	env.seedBar(t, "AAPL", 1, 150)
	env.seedBar(t, "AAPL", 0, 152)

	rec := env.do(t, http.MethodGet, "/api/v1/correlation/aapl", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Symbol string               `json:"symbol"`
		Rows   []api.CorrelationRow `json:"correlation_data"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, calendar.Format(env.today.AddDate(0, 0, -1)), body.Rows[0].Date)
	assert.InDelta(t, 0.3, body.Rows[0].SentimentScore, 1e-9)
	assert.InDelta(t, 150, body.Rows[0].ClosePrice, 1e-9)
	assert.Equal(t, 6, body.Rows[0].PostCount)
}

func TestServer_CorrelationEmptyIsArray(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})

	rec := env.do(t, http.MethodGet, "/api/v1/correlation/AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"correlation_data":[]`)
}

func TestServer_GeneratePredictionsSkipsMissingData(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	for day := 0; day < 7; day++ {
		env.seedSummary(t, "AAPL", day, 0.3, 10)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/predictions/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Generated   int                     `json:"generated"`
		Predictions []prediction.Prediction `json:"predictions"`
		Skipped     map[string]string       `json:"skipped"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 1, body.Generated)
	require.Len(t, body.Predictions, 1)
	assert.Equal(t, prediction.DirectionUp, body.Predictions[0].PredictedDirection)
	assert.Contains(t, body.Skipped, "MSFT")
	assert.Contains(t, body.Skipped, "TSLA")

	rec = env.do(t, http.MethodGet, "/api/v1/predictions/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var current struct {
		Predictions []prediction.Prediction `json:"predictions"`
	}
	decode(t, rec, &current)
	require.Len(t, current.Predictions, 1)
	assert.Equal(t, "AAPL", current.Predictions[0].Symbol)
}

func TestServer_VoteFlow(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	id := env.seedPrediction(t, "AAPL")
	votePath := "/api/v1/predictions/" + id.String() + "/vote"

	type castResponse struct {
		Message   string     `json:"message"`
		Created   bool       `json:"created"`
		VoteStats vote.Stats `json:"vote_stats"`
	}

	rec := env.do(t, http.MethodPost, votePath, gin.H{"vote_type": "agree"}, "X-Real-IP", "203.0.113.7")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first castResponse
	decode(t, rec, &first)
	assert.True(t, first.Created)
	assert.Equal(t, "Vote recorded successfully", first.Message)
	assert.Equal(t, 1, first.VoteStats.AgreeCount)

	rec = env.do(t, http.MethodPost, votePath, gin.H{"vote_type": "disagree"}, "X-Real-IP", "203.0.113.7")
	require.Equal(t, http.StatusOK, rec.Code)
	var second castResponse
	decode(t, rec, &second)
	assert.False(t, second.Created)
	assert.Equal(t, "Vote updated successfully", second.Message)
	assert.Equal(t, vote.Stats{DisagreeCount: 1, TotalVotes: 1}, second.VoteStats)

	// no X-Real-IP: the connection address identifies the voter
	rec = env.do(t, http.MethodPost, votePath, gin.H{"vote_type": "agree"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/predictions/"+id.String()+"/votes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats vote.Stats
	decode(t, rec, &stats)
	assert.Equal(t, 1, stats.AgreeCount)
	assert.Equal(t, 1, stats.DisagreeCount)
	assert.Equal(t, 2, stats.TotalVotes)
	assert.InDelta(t, 50.0, stats.AgreementPercentage, 1e-9)

	rec = env.do(t, http.MethodGet, "/api/v1/predictions/current/with-votes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var withVotes struct {
		Predictions []api.PredictionWithVotes `json:"predictions"`
	}
	decode(t, rec, &withVotes)
	require.Len(t, withVotes.Predictions, 1)
	assert.Equal(t, id, withVotes.Predictions[0].ID)
	assert.Equal(t, 2, withVotes.Predictions[0].VoteStats.TotalVotes)
}

func TestServer_VoteErrors(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	id := env.seedPrediction(t, "AAPL")

	tests := []struct {
		name     string
		path     string
		body     interface{}
		wantCode int
	}{
		{"invalid vote type", "/api/v1/predictions/" + id.String() + "/vote", gin.H{"vote_type": "maybe"}, http.StatusBadRequest},
		{"malformed id", "/api/v1/predictions/42/vote", gin.H{"vote_type": "agree"}, http.StatusBadRequest},
		{"unknown prediction", "/api/v1/predictions/" + uuid.NewString() + "/vote", gin.H{"vote_type": "agree"}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestServer_VoteStatsForUnknownPredictionAreZero(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})

	rec := env.do(t, http.MethodGet, "/api/v1/predictions/"+uuid.NewString()+"/votes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats vote.Stats
	decode(t, rec, &stats)
	assert.Equal(t, vote.Stats{}, stats)
}

func TestServer_VoteRateLimited(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{VoteRatePerMinute: 1, VoteBurst: 2})
	id := env.seedPrediction(t, "AAPL")
	votePath := "/api/v1/predictions/" + id.String() + "/vote"

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, votePath, gin.H{"vote_type": "agree"}, "X-Real-IP", "198.51.100.1")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(t, http.MethodPost, votePath, gin.H{"vote_type": "agree"}, "X-Real-IP", "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = env.do(t, http.MethodPost, votePath, gin.H{"vote_type": "agree"}, "X-Real-IP", "198.51.100.2")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_CompareStocks(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	env.seedBar(t, "AAPL", 1, 100)
	env.seedBar(t, "AAPL", 0, 110)
	env.seedSummary(t, "AAPL", 0, 0.25, 4)
	env.seedPrediction(t, "AAPL")

	rec := env.do(t, http.MethodPost, "/api/v1/compare/stocks", gin.H{"symbols": []string{"aapl", "msft"}, "days": 7})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body analytics.Comparison
	decode(t, rec, &body)
	assert.Equal(t, 7, body.Days)
	assert.Equal(t, "7 days", body.Period)
	require.Len(t, body.Stocks, 2)

	aapl, msft := body.Stocks[0], body.Stocks[1]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.InDelta(t, 10.0, aapl.PriceChange, 1e-9)
	assert.InDelta(t, 10.0, aapl.PriceChangePercent, 1e-9)
	assert.InDelta(t, 110.0, aapl.CurrentPrice, 1e-9)
	assert.Len(t, aapl.PriceHistory, 2)
	require.NotNil(t, aapl.Prediction.Direction)
	assert.Equal(t, prediction.DirectionUp, *aapl.Prediction.Direction)

	assert.Equal(t, "MSFT", msft.Symbol)
	assert.Zero(t, msft.PriceChange)
	assert.Zero(t, msft.PriceChangePercent)
	assert.Nil(t, msft.Prediction.Direction)
}

func TestServer_CompareRejectsSymbolCount(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})

	for _, symbols := range [][]string{
		{"AAPL"},
		{"AAPL", "aapl"},
		{"AAPL", "MSFT", "TSLA", "NVDA", "AMD"},
	} {
		rec := env.do(t, http.MethodPost, "/api/v1/compare/stocks", gin.H{"symbols": symbols})
		assert.Equal(t, http.StatusBadRequest, rec.Code, symbols)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/compare/metrics/AAPL", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CompareMetricsOmitsHistory(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	env.seedBar(t, "AAPL", 0, 120)
	env.seedSummary(t, "TSLA", 0, -0.3, 9)

	rec := env.do(t, http.MethodGet, "/api/v1/compare/metrics/aapl,tsla", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "price_history")
	assert.NotContains(t, rec.Body.String(), "sentiment_history")

	var body struct {
		Metrics []analytics.SymbolComparison `json:"metrics"`
		Days    int                          `json:"days"`
	}
	decode(t, rec, &body)
	assert.Equal(t, analytics.DefaultDays, body.Days)
	require.Len(t, body.Metrics, 2)
	assert.InDelta(t, 120.0, body.Metrics[0].CurrentPrice, 1e-9)
	assert.InDelta(t, -0.3, body.Metrics[1].CurrentSentiment, 1e-9)
	assert.Equal(t, 9, body.Metrics[1].TotalPosts)
}

func TestServer_AnalyticsSummary(t *testing.T) {
	env := newTestEnv(t, api.ServerConfig{})
	env.seedSummary(t, "AAPL", 0, 0.2, 10)
	env.seedSummary(t, "AAPL", 3, 0.4, 5)
	env.seedSummary(t, "AAPL", 10, 0.9, 100) // outside the 7-day window

	rec := env.do(t, http.MethodGet, "/api/v1/analytics/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalPosts int                       `json:"total_posts"`
		Averages   []analytics.SymbolSummary `json:"average_sentiments"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 15, body.TotalPosts)
	require.Len(t, body.Averages, len(testSymbols))
	assert.Equal(t, "AAPL", body.Averages[0].Symbol)
	assert.InDelta(t, 0.3, body.Averages[0].AvgSentiment, 1e-9)
}
