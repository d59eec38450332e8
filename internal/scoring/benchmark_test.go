package scoring

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/logger"
)

type stubReference struct {
	candles []contracts.Candle
	err     error
	calls   int
}

func (s *stubReference) FetchReferenceHistory(ctx context.Context, timeframe string) ([]contracts.Candle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.candles, nil
}

func candlesFrom(closes ...float64) []contracts.Candle {
	candles := make([]contracts.Candle, len(closes))
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		candles[i] = contracts.Candle{Timestamp: base.Add(time.Duration(i) * time.Hour), Close: c}
	}
	return candles
}

func benchmarkConfig() config.BenchmarkConfig {
	return config.BenchmarkConfig{
		Symbol:     "BTC-USD",
		CacheTTL:   5 * time.Minute,
		Timeframes: []string{"1h", "4h", "1d"},
	}
}

func TestBenchmarkDefaultOnFetchFailure(t *testing.T) {
	stub := &stubReference{err: errors.New("feed down")}
	b := NewBenchmark(stub, benchmarkConfig(), logger.NewNop())

	assert.Equal(t, 0.02, b.ExpectedReturn(context.Background(), "1h"))

	// Failures are not cached; the next call retries.
	assert.Equal(t, 0.02, b.ExpectedReturn(context.Background(), "1h"))
	assert.Equal(t, 2, stub.calls)
}

func TestBenchmarkDefaultOnEmptyHistory(t *testing.T) {
	stub := &stubReference{}
	b := NewBenchmark(stub, benchmarkConfig(), logger.NewNop())

	assert.Equal(t, 0.02, b.ExpectedReturn(context.Background(), "1h"))
	assert.Equal(t, 0.02, b.ExpectedReturn(context.Background(), "1h"))
	assert.Equal(t, 2, stub.calls)
}

func TestBenchmarkShortSeriesCachedDefault(t *testing.T) {
	// 1d needs 48 candles; 30 is too few, which is a valid (cacheable)
	// conservative answer rather than a fetch failure.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	stub := &stubReference{candles: candlesFrom(closes...)}
	b := NewBenchmark(stub, benchmarkConfig(), logger.NewNop())

	assert.Equal(t, 0.02, b.ExpectedReturn(context.Background(), "1d"))
	assert.Equal(t, 0.02, b.ExpectedReturn(context.Background(), "1d"))
	assert.Equal(t, 1, stub.calls)
}

func TestBenchmarkCalculationChoppy(t *testing.T) {
	stub := &stubReference{candles: candlesFrom(100, 102, 99, 103, 100, 104, 101, 105, 103)}
	b := NewBenchmark(stub, benchmarkConfig(), logger.NewNop())

	got := b.ExpectedReturn(context.Background(), "1h")
	assert.InDelta(t, 0.01904761904761909, got, 1e-12)
}

func TestBenchmarkCalculationTrendCapped(t *testing.T) {
	closes := make([]float64, 6)
	for i := range closes {
		closes[i] = 100 * math.Pow(1.08, float64(i))
	}
	stub := &stubReference{candles: candlesFrom(closes...)}
	b := NewBenchmark(stub, benchmarkConfig(), logger.NewNop())

	assert.Equal(t, 0.05, b.ExpectedReturn(context.Background(), "1h"))
}

func TestBenchmarkCalculationFlatFloored(t *testing.T) {
	stub := &stubReference{candles: candlesFrom(100, 100, 100, 100, 100, 100, 100, 100)}
	b := NewBenchmark(stub, benchmarkConfig(), logger.NewNop())

	assert.Equal(t, 0.01, b.ExpectedReturn(context.Background(), "1h"))
}

func TestBenchmarkCalculationFourHour(t *testing.T) {
	stub := &stubReference{candles: candlesFrom(100, 101.5, 100.5, 102.5, 101.2, 103.8, 102.9, 104.6, 103.1, 105.9)}
	b := NewBenchmark(stub, benchmarkConfig(), logger.NewNop())

	got := b.ExpectedReturn(context.Background(), "4h")
	assert.InDelta(t, 0.020668128605515368, got, 1e-12)
}

func TestBenchmarkCacheExpiry(t *testing.T) {
	stub := &stubReference{candles: candlesFrom(100, 102, 99, 103, 100, 104, 101, 105, 103)}
	cfg := benchmarkConfig()
	cfg.CacheTTL = 300 * time.Second
	b := NewBenchmark(stub, cfg, logger.NewNop())

	current := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return current }

	first := b.ExpectedReturn(context.Background(), "1h")
	require.Equal(t, 1, stub.calls)

	current = current.Add(299 * time.Second)
	assert.Equal(t, first, b.ExpectedReturn(context.Background(), "1h"))
	assert.Equal(t, 1, stub.calls)

	current = current.Add(time.Second)
	assert.Equal(t, first, b.ExpectedReturn(context.Background(), "1h"))
	assert.Equal(t, 2, stub.calls)
}

func TestBenchmarkInvalidTimeframe(t *testing.T) {
	stub := &stubReference{candles: candlesFrom(100, 102, 99, 103)}
	b := NewBenchmark(stub, benchmarkConfig(), logger.NewNop())

	assert.Equal(t, 0.02, b.ExpectedReturn(context.Background(), "xh"))
	assert.Equal(t, 0.02, b.ExpectedReturn(context.Background(), "xh"))
	assert.Equal(t, 2, stub.calls)
}

func TestPeriodsFor(t *testing.T) {
	tests := []struct {
		timeframe string
		want      int
		wantErr   bool
	}{
		{"1h", 1, false},
		{"4h", 4, false},
		{"20m", 1, false},
		{"30m", 1, false},
		{"1d", 24, false},
		{"2d", 48, false},
		{"", 1, false},
		{"weekly", 1, false},
		{"xh", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.timeframe, func(t *testing.T) {
			got, err := periodsFor(tt.timeframe)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaxExpectation(t *testing.T) {
	assert.Equal(t, 0.05, maxExpectation(1))
	assert.Equal(t, 0.08, maxExpectation(2))
	assert.Equal(t, 0.12, maxExpectation(4))
	assert.Equal(t, 0.20, maxExpectation(24))
}

func TestBenchmarkCompare(t *testing.T) {
	b := NewBenchmark(&stubReference{}, benchmarkConfig(), logger.NewNop())
	b.store("btc_return_1h", 0.02)

	cmp := b.Compare(context.Background(), 0.05, "1h")
	assert.Equal(t, 0.05, cmp.ExpectedReturn)
	assert.Equal(t, 0.02, cmp.BenchmarkReturn)
	assert.InDelta(t, 0.03, cmp.Outperformance, 1e-12)
	assert.InDelta(t, 2.5, cmp.OutperformanceRatio, 1e-12)
	assert.True(t, cmp.BeatsBenchmark)
}

func TestBenchmarkCompareZeroHurdle(t *testing.T) {
	b := NewBenchmark(&stubReference{}, benchmarkConfig(), logger.NewNop())
	b.store("btc_return_1h", 0.0)

	cmp := b.Compare(context.Background(), 0.05, "1h")
	assert.True(t, math.IsInf(cmp.OutperformanceRatio, 1))
	assert.True(t, cmp.BeatsBenchmark)
}

func TestBenchmarkSummary(t *testing.T) {
	b := NewBenchmark(&stubReference{}, benchmarkConfig(), logger.NewNop())
	assert.Equal(t, "BTC 1h benchmark: fetching...", b.Summary("1h"))

	b.store("btc_return_1h", 0.032)
	assert.Equal(t, "BTC 1h benchmark: 3.2%", b.Summary("1h"))
}
