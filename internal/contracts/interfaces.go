package contracts

import "context"

// MarketDataProvider fetches live quotes and price history.
// Per-symbol failures are non-fatal to a scan.
type MarketDataProvider interface {
	FetchSnapshot(ctx context.Context, symbol string) (*MarketSnapshot, error)
	FetchHistory(ctx context.Context, symbol string, periods int) ([]float64, error)
}

// OptionsProvider fetches an options chain for a symbol.
type OptionsProvider interface {
	FetchOptionsChain(ctx context.Context, symbol string) (*OptionsChainSnapshot, error)
}

// FundamentalsProvider fetches float and short-interest metrics.
type FundamentalsProvider interface {
	FetchFundamentals(ctx context.Context, symbol string) (*FundamentalSnapshot, error)
}

// ReferenceProvider fetches reference-asset history for the benchmark.
type ReferenceProvider interface {
	FetchReferenceHistory(ctx context.Context, timeframe string) ([]Candle, error)
}

// UniverseStore manages the active symbol set.
type UniverseStore interface {
	ActiveSymbols(ctx context.Context) ([]string, error)
	Add(ctx context.Context, symbol string) error
	Remove(ctx context.Context, symbol string) error
	Size(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// ScanLog captures one completed scan for persistence.
type ScanLog struct {
	Timeframe       string
	SymbolsScanned  int
	BenchmarkReturn float64
	Results         []ScanResult
	TookMs          int64
}

// ScanTracker records completed scans for later analysis.
// Implementations are best-effort; callers log and move on.
type ScanTracker interface {
	LogScan(ctx context.Context, rec ScanLog) error
}
