package data

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/data/yahoo"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/httputil"
	"github.com/wonny/flashpoint/pkg/logger"
	"github.com/wonny/flashpoint/pkg/redis"
)

const yahooRequestsPerSecond = 2

// Feed routes data requests to the configured provider and falls back
// to the synthetic provider for the enrichment fetches. Snapshots and
// reference history never fall back: a scan skips symbols it cannot
// quote, and the benchmark has its own conservative default.
//
// Successful provider fetches are cached; fallback data is not, so a
// recovered provider is consulted again on the next miss.
type Feed struct {
	market       contracts.MarketDataProvider
	options      contracts.OptionsProvider
	fundamentals contracts.FundamentalsProvider
	reference    contracts.ReferenceProvider
	fallback     *SyntheticProvider
	cache        *redis.Cache
	logger       *logger.Logger
}

// NewFeed builds the data feed for the configured provider. A nil
// cache behaves like one backed by a disabled Redis client.
func NewFeed(cfg config.DataConfig, refSymbol string, cache *redis.Cache, log *logger.Logger) (*Feed, error) {
	if cache == nil {
		noop, _ := redis.New(config.RedisConfig{Enabled: false})
		cache = redis.NewCache(noop, "flashpoint")
	}

	synthetic := NewSyntheticProvider(refSymbol, log)

	feed := &Feed{
		fallback: synthetic,
		cache:    cache,
		logger:   log,
	}

	switch cfg.Provider {
	case config.ProviderSynthetic:
		feed.market = synthetic
		feed.options = synthetic
		feed.fundamentals = synthetic
		feed.reference = synthetic

	case config.ProviderYahoo:
		httpClient := httputil.New(log).WithRateLimit(yahooRequestsPerSecond, 1)
		client := yahoo.NewClient(cfg.YahooBaseURL, refSymbol, httpClient, log)

		feed.market = client
		feed.fundamentals = client
		feed.reference = client
		// Yahoo's options endpoints sit behind a session crumb, so
		// chains stay synthetic in yahoo mode.
		feed.options = synthetic

	default:
		return nil, fmt.Errorf("unknown data provider: %s", cfg.Provider)
	}

	log.WithField("provider", cfg.Provider).Info("Data feed initialized")
	return feed, nil
}

// FetchSnapshot fetches the intraday quote for a symbol. Failures
// propagate; the scan skips symbols it cannot quote.
func (f *Feed) FetchSnapshot(ctx context.Context, symbol string) (*contracts.MarketSnapshot, error) {
	key := redis.SnapshotKey(symbol)

	var cached contracts.MarketSnapshot
	if found, err := f.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	snap, err := f.market.FetchSnapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}

	f.cacheSet(ctx, key, snap, redis.TTLQuote)
	return snap, nil
}

// FetchHistory fetches price history, falling back to the synthetic
// series when the provider fails or returns nothing.
func (f *Feed) FetchHistory(ctx context.Context, symbol string, periods int) ([]float64, error) {
	key := redis.HistoryKey(symbol, periods)

	var cached []float64
	if found, err := f.cache.Get(ctx, key, &cached); err == nil && found && len(cached) > 0 {
		return cached, nil
	}

	history, err := f.market.FetchHistory(ctx, symbol, periods)
	if err == nil && len(history) > 0 {
		f.cacheSet(ctx, key, history, redis.TTLQuote)
		return history, nil
	}

	if err != nil {
		f.logger.WithError(err).WithField("symbol", symbol).
			Warn("History fetch failed, using synthetic fallback")
	}
	return f.fallback.FetchHistory(ctx, symbol, periods)
}

// FetchOptionsChain fetches the options chain, falling back to the
// synthetic chain on provider failure.
func (f *Feed) FetchOptionsChain(ctx context.Context, symbol string) (*contracts.OptionsChainSnapshot, error) {
	key := redis.ChainKey(symbol)

	var cached contracts.OptionsChainSnapshot
	if found, err := f.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	chain, err := f.options.FetchOptionsChain(ctx, symbol)
	if err == nil {
		f.cacheSet(ctx, key, chain, redis.TTLChain)
		return chain, nil
	}

	f.logger.WithError(err).WithField("symbol", symbol).
		Warn("Options fetch failed, using synthetic fallback")
	return f.fallback.FetchOptionsChain(ctx, symbol)
}

// FetchFundamentals fetches float and short-interest metrics, falling
// back to the synthetic snapshot on provider failure.
func (f *Feed) FetchFundamentals(ctx context.Context, symbol string) (*contracts.FundamentalSnapshot, error) {
	key := redis.FundamentalsKey(symbol)

	var cached contracts.FundamentalSnapshot
	if found, err := f.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	fund, err := f.fundamentals.FetchFundamentals(ctx, symbol)
	if err == nil {
		f.cacheSet(ctx, key, fund, redis.TTLFundamentals)
		return fund, nil
	}

	f.logger.WithError(err).WithField("symbol", symbol).
		Warn("Fundamentals fetch failed, using synthetic fallback")
	return f.fallback.FetchFundamentals(ctx, symbol)
}

// FetchReferenceHistory fetches reference-asset candles. No fallback
// and no caching: the benchmark caches its computed returns with its
// own TTL and applies a default when this fails.
func (f *Feed) FetchReferenceHistory(ctx context.Context, timeframe string) ([]contracts.Candle, error) {
	return f.reference.FetchReferenceHistory(ctx, timeframe)
}

// cacheSet stores a value best-effort. A cache write failure never
// fails the fetch that produced the value.
func (f *Feed) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := f.cache.Set(ctx, key, value, ttl); err != nil {
		f.logger.WithError(err).WithField("key", key).Debug("Cache write failed")
	}
}
