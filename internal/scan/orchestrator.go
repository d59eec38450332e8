package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/scoring"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/logger"
)

const (
	defaultTimeframe = "1h"
	historyPeriods   = 100
)

// DataFeed is the slice of the market data layer a scan consumes.
type DataFeed interface {
	contracts.MarketDataProvider
	contracts.OptionsProvider
	contracts.FundamentalsProvider
}

// Orchestrator coordinates a full scan: universe resolution, batched
// data fetch, basic filtering, scoring and result assembly.
type Orchestrator struct {
	feed      DataFeed
	universe  contracts.UniverseStore
	scorer    *scoring.CompositeScorer
	benchmark *scoring.Benchmark
	tracker   contracts.ScanTracker
	cfg       config.Config
	logger    *logger.Logger

	mu           sync.Mutex
	scanCount    int
	lastScanTime time.Time
}

// NewOrchestrator creates a scan orchestrator. tracker may be nil when
// scan history persistence is disabled.
func NewOrchestrator(
	cfg config.Config,
	feed DataFeed,
	universe contracts.UniverseStore,
	scorer *scoring.CompositeScorer,
	benchmark *scoring.Benchmark,
	tracker contracts.ScanTracker,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		feed:      feed,
		universe:  universe,
		scorer:    scorer,
		benchmark: benchmark,
		tracker:   tracker,
		cfg:       cfg,
		logger:    log.WithField("module", "scanner"),
	}
}

// RunScan executes a complete scan. customSymbols overrides the
// universe when non-empty. A scan that runs but finds nothing returns
// an empty slice and no error; failing to even start (universe down,
// no usable symbols) returns an error so callers can back off.
func (o *Orchestrator) RunScan(ctx context.Context, timeframe string, customSymbols []string) (results []contracts.ScanResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithField("panic", r).Error("Scan aborted by panic")
			results, err = nil, fmt.Errorf("scan panicked: %v", r)
		}
	}()

	if timeframe == "" {
		timeframe = defaultTimeframe
	}

	o.mu.Lock()
	o.scanCount++
	scanNumber := o.scanCount
	o.mu.Unlock()

	start := time.Now()
	o.logger.WithFields(map[string]interface{}{
		"scan":      scanNumber,
		"timeframe": timeframe,
	}).Info("Starting scan")

	symbols, err := o.resolveSymbols(ctx, customSymbols)
	if err != nil {
		return nil, err
	}

	symbolData := o.fetchSymbolData(ctx, symbols)
	if len(symbolData) == 0 {
		o.logger.Warn("No market data available")
		return []contracts.ScanResult{}, nil
	}
	o.logger.WithFields(map[string]interface{}{
		"fetched": len(symbolData),
		"failed":  len(symbols) - len(symbolData),
	}).Info("Retrieved market data")

	filtered := o.applyBasicFilters(symbolData)
	if len(filtered) == 0 {
		o.logger.Warn("No symbols passed basic filters")
		return []contracts.ScanResult{}, nil
	}

	scores := o.scorer.ScoreAll(ctx, filtered, timeframe)
	o.logger.WithField("scored", len(scores)).Info("Scored symbols")

	top := o.scorer.FilterAndRank(scores)

	snapshots := make(map[string]*contracts.MarketSnapshot, len(filtered))
	for _, data := range filtered {
		snapshots[data.Market.Symbol] = data.Market
	}
	results = o.scorer.BuildResults(top, snapshots)

	took := time.Since(start)
	o.mu.Lock()
	o.lastScanTime = time.Now()
	o.mu.Unlock()

	o.logger.WithFields(map[string]interface{}{
		"scan":       scanNumber,
		"took":       took.String(),
		"candidates": len(results),
	}).Info("Scan completed")

	o.recordScan(ctx, timeframe, len(symbols), results, took)

	return results, nil
}

// QuickScan scans specific symbols with the default timeframe,
// bypassing the universe.
func (o *Orchestrator) QuickScan(ctx context.Context, symbols []string) ([]contracts.ScanResult, error) {
	o.logger.WithField("symbols", len(symbols)).Info("Quick scan")
	return o.RunScan(ctx, defaultTimeframe, symbols)
}

func (o *Orchestrator) resolveSymbols(ctx context.Context, custom []string) ([]string, error) {
	if len(custom) > 0 {
		symbols := normalizeSymbols(custom)
		if len(symbols) == 0 {
			return nil, errors.New("no usable symbols given")
		}
		o.logger.WithField("symbols", symbols).Info("Using custom symbols")
		return symbols, nil
	}

	symbols, err := o.universe.ActiveSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	if len(symbols) == 0 {
		return nil, contracts.ErrUniverseEmpty
	}
	o.logger.WithField("symbols", len(symbols)).Info("Scanning universe")
	return symbols, nil
}

// fetchSymbolData fetches data in batches of the configured size, with
// a pause between batches. One batch completes before the next starts
// so the pacing holds against provider rate limits. Per-symbol failures
// are logged and skipped; input order is preserved in the output.
func (o *Orchestrator) fetchSymbolData(ctx context.Context, symbols []string) []scoring.SymbolData {
	slots := make([]*scoring.SymbolData, len(symbols))
	batchSize := o.cfg.Scanner.BatchSize

	for start := 0; start < len(symbols) && ctx.Err() == nil; start += batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(o.cfg.Scanner.BatchDelay):
			}
			if ctx.Err() != nil {
				o.logger.Warn("Fetch cancelled, skipping remaining batches")
				break
			}
		}

		end := start + batchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()

				data, err := o.collectSymbol(ctx, symbols[idx])
				if err != nil {
					o.logger.WithError(err).WithField("symbol", symbols[idx]).Warn("Failed to fetch symbol data")
					return
				}
				slots[idx] = data
			}(i)
		}
		wg.Wait()
	}

	out := make([]scoring.SymbolData, 0, len(symbols))
	for _, slot := range slots {
		if slot != nil {
			out = append(out, *slot)
		}
	}
	return out
}

// collectSymbol gathers everything the scorer needs for one symbol.
// Only the snapshot is mandatory; missing enrichment degrades the
// matching engine to a neutral signal downstream.
func (o *Orchestrator) collectSymbol(ctx context.Context, symbol string) (*scoring.SymbolData, error) {
	md, err := o.feed.FetchSnapshot(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	history, err := o.feed.FetchHistory(ctx, symbol, historyPeriods)
	if err != nil {
		o.logger.WithError(err).WithField("symbol", symbol).Debug("History unavailable")
	}
	chain, err := o.feed.FetchOptionsChain(ctx, symbol)
	if err != nil {
		o.logger.WithError(err).WithField("symbol", symbol).Debug("Options chain unavailable")
	}
	fundamentals, err := o.feed.FetchFundamentals(ctx, symbol)
	if err != nil {
		o.logger.WithError(err).WithField("symbol", symbol).Debug("Fundamentals unavailable")
	}

	return &scoring.SymbolData{
		Market:       md,
		History:      history,
		Chain:        chain,
		Fundamentals: fundamentals,
	}, nil
}

func (o *Orchestrator) recordScan(ctx context.Context, timeframe string, scanned int, results []contracts.ScanResult, took time.Duration) {
	if o.tracker == nil {
		return
	}

	rec := contracts.ScanLog{
		Timeframe:       timeframe,
		SymbolsScanned:  scanned,
		BenchmarkReturn: o.benchmark.ExpectedReturn(ctx, timeframe),
		Results:         results,
		TookMs:          took.Milliseconds(),
	}
	if err := o.tracker.LogScan(ctx, rec); err != nil {
		o.logger.WithError(err).Warn("Failed to record scan history")
	}
}

// ScanStats describes scanner activity and configuration for the
// stats surfaces.
type ScanStats struct {
	TotalScans   int        `json:"total_scans"`
	LastScanTime *time.Time `json:"last_scan_time,omitempty"`
	UniverseSize int64      `json:"universe_size"`
	Provider     string     `json:"provider"`
	Timeframes   []string   `json:"timeframes"`
	MinScore     float64    `json:"min_score"`
	MaxResults   int        `json:"max_results"`
}

// Stats reports scanner activity since startup.
func (o *Orchestrator) Stats(ctx context.Context) ScanStats {
	o.mu.Lock()
	count := o.scanCount
	last := o.lastScanTime
	o.mu.Unlock()

	stats := ScanStats{
		TotalScans: count,
		Provider:   o.cfg.Data.Provider,
		Timeframes: o.cfg.Benchmark.Timeframes,
		MinScore:   o.cfg.Scanner.MinScore,
		MaxResults: o.cfg.Scanner.MaxResults,
	}
	if !last.IsZero() {
		t := last
		stats.LastScanTime = &t
	}

	size, err := o.universe.Size(ctx)
	if err != nil {
		o.logger.WithError(err).Warn("Universe size unavailable")
	} else {
		stats.UniverseSize = size
	}
	return stats
}

func normalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
