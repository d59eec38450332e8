package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flashpoint/internal/broker"
	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/scan"
	"github.com/wonny/flashpoint/internal/tracking"
	"github.com/wonny/flashpoint/internal/universe"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/logger"
)

type stubScanner struct {
	results      []contracts.ScanResult
	err          error
	stats        scan.ScanStats
	checks       map[string]bool
	gotTimeframe string
	gotSymbols   []string
}

func (s *stubScanner) RunScan(ctx context.Context, timeframe string, symbols []string) ([]contracts.ScanResult, error) {
	s.gotTimeframe = timeframe
	s.gotSymbols = symbols
	return s.results, s.err
}

func (s *stubScanner) QuickScan(ctx context.Context, symbols []string) ([]contracts.ScanResult, error) {
	s.gotSymbols = symbols
	return s.results, s.err
}

func (s *stubScanner) Validate(ctx context.Context) map[string]bool { return s.checks }

func (s *stubScanner) Stats(ctx context.Context) scan.ScanStats { return s.stats }

type stubBenchmark struct{ value float64 }

func (b *stubBenchmark) ExpectedReturn(ctx context.Context, timeframe string) float64 {
	return b.value
}

type stubBroadcaster struct{ payloads []interface{} }

func (b *stubBroadcaster) Broadcast(v interface{}) { b.payloads = append(b.payloads, v) }

func testConfig() config.Config {
	var cfg config.Config
	cfg.Scanner.MinScore = 70
	cfg.Benchmark.Symbol = "BTC-USD"
	return cfg
}

func newScanHandler(s *stubScanner, b Broadcaster) *ScanHandler {
	return NewScanHandler(s, &stubBenchmark{value: 0.03}, b, testConfig(), logger.NewNop())
}

func target(v float64) *float64 { return &v }

func sampleResults() []contracts.ScanResult {
	return []contracts.ScanResult{
		{
			Rank: 1, Symbol: "GME", Score: 92.5, CurrentPrice: 25.0, VWAP: 24.5,
			TargetStrike: target(30), ProbabilityReach: 0.72, ExpectedReturn: 0.25,
			Timeframe: "1-2 hours", EntryZone: [2]float64{24.75, 25.25}, StopLoss: 23.75,
			SqueezeFactors: []string{"High short interest"}, Reasoning: "Volume surge with tight float",
		},
		{
			Rank: 2, Symbol: "AMC", Score: 81.0, CurrentPrice: 5.25, VWAP: 5.3,
			ProbabilityReach: 0.65, ExpectedReturn: 0.18, Timeframe: "2-4 hours",
			EntryZone: [2]float64{5.2, 5.3}, StopLoss: 4.99, Reasoning: "Rising call volume",
		},
		{
			Rank: 3, Symbol: "BBBY", Score: 74.5, CurrentPrice: 12.0, VWAP: 11.9,
			ProbabilityReach: 0.61, ExpectedReturn: 0.12, Timeframe: "4+ hours",
			EntryZone: [2]float64{11.88, 12.12}, StopLoss: 11.4, Reasoning: "Gamma pressure building",
		},
		{
			Rank: 4, Symbol: "KOSS", Score: 71.0, CurrentPrice: 8.5, VWAP: 8.4,
			ProbabilityReach: 0.6, ExpectedReturn: 0.1, Timeframe: "4+ hours",
			EntryZone: [2]float64{8.42, 8.59}, StopLoss: 8.08, Reasoning: "Short interest elevated",
		},
	}
}

func TestRunScanDefaults(t *testing.T) {
	s := &stubScanner{results: sampleResults(), stats: scan.ScanStats{UniverseSize: 50}}
	h := newScanHandler(s, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1h", s.gotTimeframe)
	assert.Empty(t, s.gotSymbols)

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.ScanID, "scan_"))
	assert.Len(t, resp.Candidates, 3)
	assert.Equal(t, "BBBY", resp.Candidates[2].Symbol)
	assert.Equal(t, 50, resp.TotalSymbolsAnalyzed)
	assert.InDelta(t, 0.03, resp.BenchmarkReturn, 1e-9)
	assert.Equal(t, "1h", resp.Metadata.Timeframe)
	assert.InDelta(t, 70, resp.Metadata.MinScoreUsed, 1e-9)
	assert.Equal(t, APIVersion, resp.Metadata.APIVersion)
}

func TestRunScanCustomRequest(t *testing.T) {
	s := &stubScanner{results: sampleResults()}
	bc := &stubBroadcaster{}
	h := newScanHandler(s, bc)

	body := `{"timeframe":"4h","symbols":["gme","amc"],"min_score":80,"max_results":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4h", s.gotTimeframe)
	assert.Equal(t, []string{"gme", "amc"}, s.gotSymbols)

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 2)
	assert.Equal(t, "GME", resp.Candidates[0].Symbol)
	assert.Equal(t, "AMC", resp.Candidates[1].Symbol)
	assert.Equal(t, 2, resp.Candidates[1].Rank)
	assert.Equal(t, 2, resp.TotalSymbolsAnalyzed)
	assert.InDelta(t, 80, resp.Metadata.MinScoreUsed, 1e-9)

	require.Len(t, bc.payloads, 1)
	broadcasted, ok := bc.payloads[0].(ScanResponse)
	require.True(t, ok)
	assert.Equal(t, resp.ScanID, broadcasted.ScanID)
}

func TestRunScanInvalidBody(t *testing.T) {
	h := newScanHandler(&stubScanner{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}

func TestRunScanUniverseDown(t *testing.T) {
	for name, err := range map[string]error{
		"empty":       contracts.ErrUniverseEmpty,
		"unavailable": fmt.Errorf("load universe: %w", universe.ErrUnavailable),
	} {
		t.Run(name, func(t *testing.T) {
			h := newScanHandler(&stubScanner{err: err}, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
			rec := httptest.NewRecorder()
			h.RunScan(rec, req)

			require.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Contains(t, rec.Body.String(), "Scan failed")
		})
	}
}

func TestRunScanFailure(t *testing.T) {
	h := newScanHandler(&stubScanner{err: errors.New("feed exploded")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scan failed: feed exploded")
}

func TestRunScanNoCandidates(t *testing.T) {
	h := newScanHandler(&stubScanner{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
	rec := httptest.NewRecorder()
	h.RunScan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"candidates":[]`)
}

func TestHealth(t *testing.T) {
	s := &stubScanner{checks: map[string]bool{
		"redis_connection": true,
		"data_feed":        true,
		"btc_benchmark":    true,
		"symbol_universe":  true,
	}}
	h := newScanHandler(s, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, s.checks, resp.Components)

	s.checks["data_feed"] = false
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
}

func TestGetQuickAnalysis(t *testing.T) {
	s := &stubScanner{results: sampleResults()[:1]}
	h := newScanHandler(s, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/quick/gme,amc", nil)
	req = mux.SetURLVars(req, map[string]string{"symbols": "gme, amc"})
	rec := httptest.NewRecorder()
	h.GetQuickAnalysis(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"GME", "AMC"}, s.gotSymbols)

	var resp QuickResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"GME", "AMC"}, resp.SymbolsAnalyzed)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "GME", resp.Candidates[0].Symbol)
	assert.InDelta(t, 0.72, resp.Candidates[0].Probability, 1e-9)
	assert.Empty(t, resp.Message)
}

func TestGetQuickAnalysisNoOpportunities(t *testing.T) {
	h := newScanHandler(&stubScanner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/quick/ZZZZ", nil)
	req = mux.SetURLVars(req, map[string]string{"symbols": "ZZZZ"})
	rec := httptest.NewRecorder()
	h.GetQuickAnalysis(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp QuickResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No opportunities found in specified symbols", resp.Message)
	assert.Empty(t, resp.Candidates)
	assert.Contains(t, rec.Body.String(), `"candidates":[]`)
}

func TestGetBenchmark(t *testing.T) {
	h := newScanHandler(&stubScanner{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/benchmark?timeframe=4h", nil)
	rec := httptest.NewRecorder()
	h.GetBenchmark(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp BenchmarkResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "4h", resp.Timeframe)
	assert.Equal(t, "BTC-USD", resp.Symbol)
	assert.InDelta(t, 0.03, resp.ExpectedReturn, 1e-9)
	assert.Equal(t, "3.00%", resp.ExpectedReturnPct)
}

func TestGetStats(t *testing.T) {
	s := &stubScanner{stats: scan.ScanStats{TotalScans: 4, UniverseSize: 50, Provider: "synthetic"}}
	h := newScanHandler(s, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp scan.ScanStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.TotalScans)
	assert.EqualValues(t, 50, resp.UniverseSize)
	assert.Equal(t, "synthetic", resp.Provider)
}

type stubTracker struct {
	stats         *tracking.PerformanceStats
	effectiveness map[string]tracking.BucketStats
	recent        []tracking.ScanSummary
	err           error
	gotDays       int
	gotLimit      int
}

func (s *stubTracker) PerformanceStats(ctx context.Context, days int) (*tracking.PerformanceStats, error) {
	s.gotDays = days
	return s.stats, s.err
}

func (s *stubTracker) SignalEffectiveness(ctx context.Context) (map[string]tracking.BucketStats, error) {
	return s.effectiveness, nil
}

func (s *stubTracker) RecentScans(ctx context.Context, limit int) ([]tracking.ScanSummary, error) {
	s.gotLimit = limit
	return s.recent, nil
}

func TestGetPerformance(t *testing.T) {
	tr := &stubTracker{
		stats:         &tracking.PerformanceStats{TotalTrades: 12, WinRate: 0.58},
		effectiveness: map[string]tracking.BucketStats{"90+": {TotalTrades: 3, WinRate: 1.0}},
		recent:        []tracking.ScanSummary{{ID: 7, Timeframe: "1h"}},
	}
	h := NewPerformanceHandler(tr, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/performance?days=7", nil)
	rec := httptest.NewRecorder()
	h.GetPerformance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, tr.gotDays)
	assert.Equal(t, 10, tr.gotLimit)

	var resp PerformanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.PeriodDays)
	require.NotNil(t, resp.OverallPerformance)
	assert.EqualValues(t, 12, resp.OverallPerformance.TotalTrades)
	assert.Contains(t, resp.SignalEffectiveness, "90+")
	require.Len(t, resp.RecentScans, 1)
	assert.EqualValues(t, 7, resp.RecentScans[0].ID)
}

func TestGetPerformanceDefaultDays(t *testing.T) {
	tr := &stubTracker{stats: &tracking.PerformanceStats{}}
	h := NewPerformanceHandler(tr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetPerformance(rec, httptest.NewRequest(http.MethodGet, "/api/performance", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, tr.gotDays)
}

func TestGetPerformanceInvalidDays(t *testing.T) {
	h := NewPerformanceHandler(&stubTracker{}, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetPerformance(rec, httptest.NewRequest(http.MethodGet, "/api/performance?days=soon", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid days parameter")
}

func TestGetPerformanceDisabled(t *testing.T) {
	h := NewPerformanceHandler(nil, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetPerformance(rec, httptest.NewRequest(http.MethodGet, "/api/performance", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Performance tracking not enabled")
}

func TestGetPerformanceQueryFailure(t *testing.T) {
	h := NewPerformanceHandler(&stubTracker{err: errors.New("pool closed")}, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetPerformance(rec, httptest.NewRequest(http.MethodGet, "/api/performance", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Performance query failed")
}

type stubUniverse struct {
	symbols []string
	err     error
	added   []string
	removed []string
}

func (s *stubUniverse) ActiveSymbols(ctx context.Context) ([]string, error) {
	return s.symbols, s.err
}

func (s *stubUniverse) Add(ctx context.Context, symbol string) error {
	if s.err != nil {
		return s.err
	}
	s.added = append(s.added, symbol)
	return nil
}

func (s *stubUniverse) Remove(ctx context.Context, symbol string) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, symbol)
	return nil
}

func (s *stubUniverse) Size(ctx context.Context) (int64, error) {
	return int64(len(s.symbols)), s.err
}

func (s *stubUniverse) Ping(ctx context.Context) error { return s.err }

func TestGetUniverse(t *testing.T) {
	h := NewUniverseHandler(&stubUniverse{symbols: []string{"AMC", "GME"}}, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetUniverse(rec, httptest.NewRequest(http.MethodGet, "/api/universe", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UniverseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.UniverseSize)
	assert.Equal(t, []string{"AMC", "GME"}, resp.Symbols)
}

func TestGetUniverseEmpty(t *testing.T) {
	h := NewUniverseHandler(&stubUniverse{}, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetUniverse(rec, httptest.NewRequest(http.MethodGet, "/api/universe", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"symbols":[]`)
}

func TestAddSymbol(t *testing.T) {
	store := &stubUniverse{}
	h := NewUniverseHandler(store, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/universe/gme", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "gme"})
	rec := httptest.NewRecorder()
	h.AddSymbol(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"GME"}, store.added)

	var resp UniverseMutation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "GME", resp.Symbol)
	assert.Equal(t, "Added GME to universe", resp.Message)
}

func TestRemoveSymbol(t *testing.T) {
	store := &stubUniverse{}
	h := NewUniverseHandler(store, logger.NewNop())

	req := httptest.NewRequest(http.MethodDelete, "/api/universe/AMC", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "AMC"})
	rec := httptest.NewRecorder()
	h.RemoveSymbol(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"AMC"}, store.removed)
	assert.Contains(t, rec.Body.String(), "Removed AMC from universe")
}

func TestAddSymbolBlank(t *testing.T) {
	store := &stubUniverse{}
	h := NewUniverseHandler(store, logger.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/universe/%20", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "  "})
	rec := httptest.NewRecorder()
	h.AddSymbol(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.added)
}

func TestUniverseUnavailable(t *testing.T) {
	h := NewUniverseHandler(&stubUniverse{err: universe.ErrUnavailable}, logger.NewNop())

	rec := httptest.NewRecorder()
	h.GetUniverse(rec, httptest.NewRequest(http.MethodGet, "/api/universe", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/universe/GME", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "GME"})
	rec = httptest.NewRecorder()
	h.AddSymbol(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubFeed struct {
	snapshot  *contracts.MarketSnapshot
	err       error
	gotSymbol string
}

func (s *stubFeed) FetchSnapshot(ctx context.Context, symbol string) (*contracts.MarketSnapshot, error) {
	s.gotSymbol = symbol
	return s.snapshot, s.err
}

func (s *stubFeed) FetchHistory(ctx context.Context, symbol string, periods int) ([]float64, error) {
	return nil, s.err
}

func TestGetMarketData(t *testing.T) {
	feed := &stubFeed{snapshot: &contracts.MarketSnapshot{Symbol: "GME", Price: 25.0, Volume: 1200000}}
	h := NewMarketDataHandler(feed, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/market-data/gme", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "gme"})
	rec := httptest.NewRecorder()
	h.GetMarketData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GME", feed.gotSymbol)

	var resp contracts.MarketSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "GME", resp.Symbol)
	assert.InDelta(t, 25.0, resp.Price, 1e-9)
}

func TestGetMarketDataNotFound(t *testing.T) {
	h := NewMarketDataHandler(&stubFeed{err: errors.New("no quote")}, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/market-data/GME", nil)
	req = mux.SetURLVars(req, map[string]string{"symbol": "GME"})
	rec := httptest.NewRecorder()
	h.GetMarketData(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data found for GME")
}

type stubPlacer struct {
	receipt  *broker.OrderReceipt
	err      error
	gotOrder broker.Order
	gotName  string
}

func (s *stubPlacer) PlaceOrder(ctx context.Context, order broker.Order, name string) (*broker.OrderReceipt, error) {
	s.gotOrder = order
	s.gotName = name
	return s.receipt, s.err
}

func TestExecuteOrder(t *testing.T) {
	placer := &stubPlacer{receipt: &broker.OrderReceipt{
		OrderID: "paper-1", Status: broker.StatusFilled, Symbol: "GME",
		Side: broker.SideBuy, Quantity: 10, FilledQuantity: 10, AveragePrice: 25.0,
	}}
	h := NewExecutionHandler(placer, logger.NewNop())

	body := `{"symbol":"gme","side":"buy","quantity":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Execute(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paper", placer.gotName)
	assert.Equal(t, "GME", placer.gotOrder.Symbol)
	assert.Equal(t, broker.TypeMarket, placer.gotOrder.Type)

	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "paper", resp.Broker)
	require.NotNil(t, resp.Receipt)
	assert.Equal(t, "paper-1", resp.Receipt.OrderID)
	assert.Equal(t, broker.StatusFilled, resp.Receipt.Status)
}

func TestExecuteNamedBroker(t *testing.T) {
	placer := &stubPlacer{receipt: &broker.OrderReceipt{OrderID: "x", Status: broker.StatusFilled}}
	h := NewExecutionHandler(placer, logger.NewNop())

	body := `{"symbol":"GME","side":"sell","quantity":5,"type":"limit","price":30,"broker":"alpaca"}`
	req := httptest.NewRequest(http.MethodPost, "/api/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Execute(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alpaca", placer.gotName)
	assert.Equal(t, broker.TypeLimit, placer.gotOrder.Type)
	assert.InDelta(t, 30.0, placer.gotOrder.Price, 1e-9)
}

func TestExecuteValidation(t *testing.T) {
	cases := map[string]string{
		"missing symbol": `{"side":"buy","quantity":10}`,
		"zero quantity":  `{"symbol":"GME","side":"buy","quantity":0}`,
		"bad side":       `{"symbol":"GME","side":"hold","quantity":10}`,
		"bad body":       `{`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h := NewExecutionHandler(&stubPlacer{}, logger.NewNop())

			req := httptest.NewRequest(http.MethodPost, "/api/execute", strings.NewReader(body))
			rec := httptest.NewRecorder()
			h.Execute(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestExecuteBrokerError(t *testing.T) {
	h := NewExecutionHandler(&stubPlacer{err: errors.New("broker alpaca not found")}, logger.NewNop())

	body := `{"symbol":"GME","side":"buy","quantity":10,"broker":"alpaca"}`
	req := httptest.NewRequest(http.MethodPost, "/api/execute", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Execute(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order failed")
}
