package scoring

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/signals"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/logger"
)

const (
	// defaultReturn is the conservative expectation used whenever the
	// reference series is unavailable or too short.
	defaultReturn = 0.02
	// minReturn floors the expectation; the market typically moves.
	minReturn = 0.01
	// strongMomentumRatio switches the expectation from the
	// conservative min(momentum, volatility) to pure momentum.
	strongMomentumRatio = 0.5
)

// Benchmark computes the expected reference-asset return per
// timeframe. Candidates must beat this hurdle to survive filtering.
// Results are cached for the configured TTL.
type Benchmark struct {
	provider contracts.ReferenceProvider
	cfg      config.BenchmarkConfig
	logger   *logger.Logger
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	value    float64
	storedAt time.Time
}

// Comparison reports a candidate's expected return against the
// reference hurdle for one timeframe.
type Comparison struct {
	ExpectedReturn      float64 `json:"expected_return"`
	BenchmarkReturn     float64 `json:"btc_return"`
	Outperformance      float64 `json:"outperformance"`
	OutperformanceRatio float64 `json:"outperformance_ratio"`
	BeatsBenchmark      bool    `json:"beats_btc"`
}

// NewBenchmark creates a benchmark over the given reference provider.
func NewBenchmark(provider contracts.ReferenceProvider, cfg config.BenchmarkConfig, log *logger.Logger) *Benchmark {
	return &Benchmark{
		provider: provider,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

// ExpectedReturn returns the expected reference return for the
// timeframe. Failures degrade to a conservative default that is never
// cached, so the next call retries the fetch.
func (b *Benchmark) ExpectedReturn(ctx context.Context, timeframe string) float64 {
	key := "btc_return_" + timeframe
	if value, ok := b.cached(key); ok {
		return value
	}

	candles, err := b.provider.FetchReferenceHistory(ctx, timeframe)
	if err != nil {
		b.logger.WithError(err).WithField("timeframe", timeframe).
			Warn("Reference history unavailable, using default return")
		return defaultReturn
	}
	if len(candles) == 0 {
		b.logger.WithField("timeframe", timeframe).
			Warn("Empty reference history, using default return")
		return defaultReturn
	}

	value, err := b.calculate(candles, timeframe)
	if err != nil {
		b.logger.WithError(err).Warn("Benchmark calculation failed, using default return")
		return defaultReturn
	}

	b.store(key, value)
	return value
}

// Compare reports how an expected return stacks up against the
// reference hurdle for the timeframe.
func (b *Benchmark) Compare(ctx context.Context, expectedReturn float64, timeframe string) Comparison {
	benchmarkReturn := b.ExpectedReturn(ctx, timeframe)

	ratio := math.Inf(1)
	if benchmarkReturn > 0 {
		ratio = expectedReturn / benchmarkReturn
	}

	return Comparison{
		ExpectedReturn:      expectedReturn,
		BenchmarkReturn:     benchmarkReturn,
		Outperformance:      expectedReturn - benchmarkReturn,
		OutperformanceRatio: ratio,
		BeatsBenchmark:      expectedReturn > benchmarkReturn,
	}
}

// Summary returns a one-line description of the cached hurdle, for
// CLI output and health endpoints.
func (b *Benchmark) Summary(timeframe string) string {
	if value, ok := b.cached("btc_return_" + timeframe); ok {
		return fmt.Sprintf("BTC %s benchmark: %.1f%%", timeframe, value*100)
	}
	return fmt.Sprintf("BTC %s benchmark: fetching...", timeframe)
}

// calculate derives the expected return from momentum and volatility
// of the candle series. Short series yield the conservative default,
// which is cacheable; an unparseable timeframe is an error.
func (b *Benchmark) calculate(candles []contracts.Candle, timeframe string) (float64, error) {
	periods, err := periodsFor(timeframe)
	if err != nil {
		return 0, err
	}

	if len(candles) < periods*2 {
		return defaultReturn, nil
	}

	returns := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		returns = append(returns, candles[i].Close/candles[i-1].Close-1)
	}

	vol := signals.StdDev(tail(returns, periods*4))
	momentum := signals.Mean(tail(returns, periods))

	base := momentum * float64(periods)
	volExpectation := vol * math.Sqrt(float64(periods))

	// Conservative: the lower of the momentum and volatility
	// expectations, unless momentum clearly dominates volatility.
	expected := math.Min(math.Abs(base), volExpectation)
	if math.Abs(momentum) > vol*strongMomentumRatio {
		expected = math.Abs(base)
	}

	expected = math.Max(expected, minReturn)
	if limit := maxExpectation(periods); expected > limit {
		expected = limit
	}

	b.logger.WithFields(map[string]interface{}{
		"timeframe": timeframe,
		"expected":  expected,
		"momentum":  momentum,
		"vol":       vol,
	}).Debug("Calculated benchmark return")

	return expected, nil
}

func (b *Benchmark) cached(key string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.cache[key]
	if !ok {
		return 0, false
	}
	if b.now().Sub(entry.storedAt) >= b.cfg.CacheTTL {
		return 0, false
	}
	return entry.value, true
}

func (b *Benchmark) store(key string, value float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache[key] = cacheEntry{value: value, storedAt: b.now()}
}

// periodsFor converts a timeframe label to hourly periods: "4h" is 4,
// "1d" is 24, minute frames count as one hour.
func periodsFor(timeframe string) (int, error) {
	switch {
	case strings.Contains(timeframe, "h"):
		n, err := strconv.Atoi(strings.ReplaceAll(timeframe, "h", ""))
		if err != nil {
			return 0, fmt.Errorf("invalid timeframe %q: %w", timeframe, err)
		}
		return n, nil
	case strings.Contains(timeframe, "m"):
		return 1, nil
	case strings.Contains(timeframe, "d"):
		n, err := strconv.Atoi(strings.ReplaceAll(timeframe, "d", ""))
		if err != nil {
			return 0, fmt.Errorf("invalid timeframe %q: %w", timeframe, err)
		}
		return n * 24, nil
	default:
		return 1, nil
	}
}

// maxExpectation caps the hurdle at what the timeframe can plausibly
// deliver.
func maxExpectation(periods int) float64 {
	switch {
	case periods <= 1:
		return 0.05
	case periods <= 2:
		return 0.08
	case periods <= 4:
		return 0.12
	default:
		return 0.20
	}
}

// tail returns the last n values, or all of them when fewer exist.
func tail(values []float64, n int) []float64 {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}
