package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/scan"
	"github.com/wonny/flashpoint/internal/universe"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/logger"
)

// APIVersion is reported by the root endpoint and in scan metadata.
const APIVersion = "1.0.0"

const (
	defaultTimeframe  = "1h"
	defaultMaxResults = 3
)

// Scanner is the slice of the scan orchestrator the API consumes.
type Scanner interface {
	RunScan(ctx context.Context, timeframe string, customSymbols []string) ([]contracts.ScanResult, error)
	QuickScan(ctx context.Context, symbols []string) ([]contracts.ScanResult, error)
	Validate(ctx context.Context) map[string]bool
	Stats(ctx context.Context) scan.ScanStats
}

// Benchmark yields the reference hurdle for a timeframe.
type Benchmark interface {
	ExpectedReturn(ctx context.Context, timeframe string) float64
}

// Broadcaster pushes completed scans to websocket subscribers.
type Broadcaster interface {
	Broadcast(v interface{})
}

// ScanHandler serves scan execution and scanner introspection.
type ScanHandler struct {
	scanner     Scanner
	benchmark   Benchmark
	broadcaster Broadcaster
	cfg         config.Config
	logger      *logger.Logger
}

// NewScanHandler creates the scan handler. broadcaster may be nil when
// no websocket hub is running.
func NewScanHandler(scanner Scanner, benchmark Benchmark, broadcaster Broadcaster, cfg config.Config, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		scanner:     scanner,
		benchmark:   benchmark,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      log,
	}
}

// ScanRequest selects what to scan. All fields are optional; zero
// values mean scanner defaults.
type ScanRequest struct {
	Symbols    []string `json:"symbols,omitempty"`
	Timeframe  string   `json:"timeframe,omitempty"`
	MinScore   float64  `json:"min_score,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
}

// ScanMetadata records the parameters a scan ran with.
type ScanMetadata struct {
	Timeframe    string  `json:"timeframe"`
	MinScoreUsed float64 `json:"min_score_used"`
	APIVersion   string  `json:"api_version"`
}

// ScanResponse is one completed scan. The same payload goes to HTTP
// callers and websocket subscribers.
type ScanResponse struct {
	ScanID               string                 `json:"scan_id"`
	Timestamp            time.Time              `json:"timestamp"`
	BenchmarkReturn      float64                `json:"benchmark_return"`
	TotalSymbolsAnalyzed int                    `json:"total_symbols_analyzed"`
	Candidates           []contracts.ScanResult `json:"candidates"`
	Metadata             ScanMetadata           `json:"metadata"`
}

// RunScan executes a complete scan.
// POST /api/scan
func (h *ScanHandler) RunScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Timeframe == "" {
		req.Timeframe = defaultTimeframe
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultMaxResults
	}

	results, err := h.scanner.RunScan(ctx, req.Timeframe, req.Symbols)
	if err != nil {
		h.logger.WithError(err).Error("Scan request failed")
		status := http.StatusInternalServerError
		if errors.Is(err, contracts.ErrUniverseEmpty) || errors.Is(err, universe.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, fmt.Sprintf("Scan failed: %v", err))
		return
	}

	resp := h.buildScanResponse(ctx, req, results)
	if h.broadcaster != nil {
		h.broadcaster.Broadcast(resp)
	}
	respondJSON(w, http.StatusOK, resp)
}

// buildScanResponse applies per-request floors and limits on top of a
// raw scan. A request floor can only tighten the configured threshold,
// never loosen it.
func (h *ScanHandler) buildScanResponse(ctx context.Context, req ScanRequest, results []contracts.ScanResult) ScanResponse {
	minScore := h.cfg.Scanner.MinScore
	if req.MinScore > minScore {
		minScore = req.MinScore
		results = filterByScore(results, minScore)
	}
	if len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	if results == nil {
		results = []contracts.ScanResult{}
	}

	analyzed := len(req.Symbols)
	if analyzed == 0 {
		analyzed = int(h.scanner.Stats(ctx).UniverseSize)
	}

	return ScanResponse{
		ScanID:               fmt.Sprintf("scan_%d", time.Now().Unix()),
		Timestamp:            time.Now(),
		BenchmarkReturn:      h.benchmark.ExpectedReturn(ctx, req.Timeframe),
		TotalSymbolsAnalyzed: analyzed,
		Candidates:           results,
		Metadata: ScanMetadata{
			Timeframe:    req.Timeframe,
			MinScoreUsed: minScore,
			APIVersion:   APIVersion,
		},
	}
}

// filterByScore keeps results at or above the floor and renumbers the
// survivors.
func filterByScore(results []contracts.ScanResult, floor float64) []contracts.ScanResult {
	out := make([]contracts.ScanResult, 0, len(results))
	for _, res := range results {
		if res.Score >= floor {
			res.Rank = len(out) + 1
			out = append(out, res)
		}
	}
	return out
}

// HealthResponse reports overall and per-component health.
type HealthResponse struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Health probes the scanner's dependencies.
// GET /health
func (h *ScanHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := h.scanner.Validate(r.Context())

	status := "healthy"
	for _, ok := range checks {
		if !ok {
			status = "degraded"
			break
		}
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:     status,
		Components: checks,
		Timestamp:  time.Now(),
	})
}

// QuickCandidate is the condensed result shape for quick analysis.
type QuickCandidate struct {
	Rank           int     `json:"rank"`
	Symbol         string  `json:"symbol"`
	Score          float64 `json:"score"`
	CurrentPrice   float64 `json:"current_price"`
	ExpectedReturn float64 `json:"expected_return"`
	Probability    float64 `json:"probability"`
	Timeframe      string  `json:"timeframe"`
	Reasoning      string  `json:"reasoning"`
}

// QuickResponse reports a quick look at specific symbols.
type QuickResponse struct {
	SymbolsAnalyzed []string         `json:"symbols_analyzed"`
	Candidates      []QuickCandidate `json:"candidates"`
	Message         string           `json:"message,omitempty"`
	Timestamp       time.Time        `json:"timestamp"`
}

// GetQuickAnalysis scans the comma-separated symbols in the path,
// bypassing the universe.
// GET /api/quick/{symbols}
func (h *ScanHandler) GetQuickAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbols := splitSymbols(mux.Vars(r)["symbols"])
	if len(symbols) == 0 {
		respondError(w, http.StatusBadRequest, "No symbols given")
		return
	}

	results, err := h.scanner.QuickScan(ctx, symbols)
	if err != nil {
		h.logger.WithError(err).Error("Quick analysis failed")
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	resp := QuickResponse{
		SymbolsAnalyzed: symbols,
		Candidates:      make([]QuickCandidate, 0, len(results)),
		Timestamp:       time.Now(),
	}
	for _, res := range results {
		resp.Candidates = append(resp.Candidates, QuickCandidate{
			Rank:           res.Rank,
			Symbol:         res.Symbol,
			Score:          res.Score,
			CurrentPrice:   res.CurrentPrice,
			ExpectedReturn: res.ExpectedReturn,
			Probability:    res.ProbabilityReach,
			Timeframe:      res.Timeframe,
			Reasoning:      res.Reasoning,
		})
	}
	if len(resp.Candidates) == 0 {
		resp.Message = "No opportunities found in specified symbols"
	}

	respondJSON(w, http.StatusOK, resp)
}

// BenchmarkResponse reports the reference hurdle for one timeframe.
type BenchmarkResponse struct {
	Timeframe         string    `json:"timeframe"`
	Symbol            string    `json:"symbol"`
	ExpectedReturn    float64   `json:"expected_return"`
	ExpectedReturnPct string    `json:"expected_return_pct"`
	Timestamp         time.Time `json:"timestamp"`
}

// GetBenchmark reports the current reference hurdle.
// GET /api/benchmark?timeframe=1h
func (h *ScanHandler) GetBenchmark(w http.ResponseWriter, r *http.Request) {
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = defaultTimeframe
	}

	ret := h.benchmark.ExpectedReturn(r.Context(), timeframe)
	respondJSON(w, http.StatusOK, BenchmarkResponse{
		Timeframe:         timeframe,
		Symbol:            h.cfg.Benchmark.Symbol,
		ExpectedReturn:    ret,
		ExpectedReturnPct: fmt.Sprintf("%.2f%%", ret*100),
		Timestamp:         time.Now(),
	})
}

// GetStats reports scanner activity and configuration.
// GET /api/stats
func (h *ScanHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scanner.Stats(r.Context()))
}

func splitSymbols(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
