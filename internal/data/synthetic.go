package data

import (
	"context"
	"math"
	"time"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/pkg/logger"
)

const (
	referenceHours   = 7 * 24
	referenceBase    = 65000.0
	historyVol       = 0.02
	referenceVol     = 0.01
	strikeStep       = 0.5
	strikeSpan       = 10
	volumeDecayRate  = 10.0
	oiDecayRate      = 8.0
	minStrikeVolume  = 10.0
	minStrikeOI      = 50.0
	baseIV           = 0.3
	minIV            = 0.1
	ivDistanceFactor = 2.0
)

// SyntheticProvider serves deterministic market data derived from the
// symbol itself. The same symbol always produces the same snapshot,
// history, chain and fundamentals, which makes demo scans and tests
// reproducible without any network access.
type SyntheticProvider struct {
	refSymbol string
	logger    *logger.Logger
}

// NewSyntheticProvider creates a synthetic provider. refSymbol names
// the reference asset whose history FetchReferenceHistory replays.
func NewSyntheticProvider(refSymbol string, log *logger.Logger) *SyntheticProvider {
	return &SyntheticProvider{
		refSymbol: refSymbol,
		logger:    log,
	}
}

// FetchSnapshot returns the deterministic intraday quote for symbol
func (p *SyntheticProvider) FetchSnapshot(ctx context.Context, symbol string) (*contracts.MarketSnapshot, error) {
	md := p.snapshot(symbol)

	p.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"price":  md.Price,
		"volume": md.Volume,
	}).Debug("Generated synthetic snapshot")

	return md, nil
}

// FetchHistory returns a compounded random walk that ends exactly at
// the symbol's snapshot price.
func (p *SyntheticProvider) FetchHistory(ctx context.Context, symbol string, periods int) ([]float64, error) {
	price := p.snapshot(symbol).Price

	if periods < 2 {
		return []float64{price}, nil
	}

	s := newStream(symbol, "history")
	prices := make([]float64, periods)
	prices[0] = price * 0.95
	for i := 1; i < periods; i++ {
		prices[i] = prices[i-1] * (1 + s.Normal(0, historyVol))
	}
	prices[periods-1] = price

	return prices, nil
}

// FetchOptionsChain returns a chain of strikes around the snapshot
// price with volume, open interest and an IV smile concentrated at
// the money.
func (p *SyntheticProvider) FetchOptionsChain(ctx context.Context, symbol string) (*contracts.OptionsChainSnapshot, error) {
	md := p.snapshot(symbol)
	s := newStream(symbol, "options")

	chain := &contracts.OptionsChainSnapshot{
		Symbol:     symbol,
		Strikes:    make([]float64, 0, 2*strikeSpan+1),
		CallVolume: make(map[float64]int64),
		PutVolume:  make(map[float64]int64),
		CallOI:     make(map[float64]int64),
		PutOI:      make(map[float64]int64),
		IV:         make(map[float64]float64),
		Timestamp:  md.Timestamp,
	}

	for i := -strikeSpan; i <= strikeSpan; i++ {
		strike := round2(md.Price + float64(i)*strikeStep)
		if strike <= 0 {
			continue
		}
		chain.Strikes = append(chain.Strikes, strike)

		distance := math.Abs(strike-md.Price) / md.Price
		baseVolume := math.Floor(1000 * math.Exp(-distance*volumeDecayRate))
		if baseVolume < minStrikeVolume {
			baseVolume = minStrikeVolume
		}
		baseOI := math.Floor(5000 * math.Exp(-distance*oiDecayRate))
		if baseOI < minStrikeOI {
			baseOI = minStrikeOI
		}

		chain.CallVolume[strike] = int64(baseVolume * s.Uniform(0.5, 2.0))
		chain.PutVolume[strike] = int64(baseVolume * s.Uniform(0.5, 2.0))
		chain.CallOI[strike] = int64(baseOI * s.Uniform(0.5, 2.0))
		chain.PutOI[strike] = int64(baseOI * s.Uniform(0.5, 2.0))

		iv := baseIV + distance*ivDistanceFactor + s.Uniform(-0.1, 0.1)
		if iv < minIV {
			iv = minIV
		}
		chain.IV[strike] = iv
	}

	return chain, nil
}

// FetchFundamentals returns deterministic float, short interest and
// ownership metrics shaped like a candidate squeeze name.
func (p *SyntheticProvider) FetchFundamentals(ctx context.Context, symbol string) (*contracts.FundamentalSnapshot, error) {
	md := p.snapshot(symbol)
	s := newStream(symbol, "fundamentals")

	floatShares := int64(s.Uniform(5_000_000, 50_000_000))
	shortPercent := s.Uniform(5, 40)
	borrowFee := s.Uniform(10, 200)
	avgVolume := int64(float64(md.Volume) * s.Uniform(0.5, 2.0))
	insiderPercent := s.Uniform(5, 50)

	return &contracts.FundamentalSnapshot{
		Symbol:         symbol,
		FloatShares:    floatShares,
		ShortPercent:   shortPercent,
		ShortShares:    int64(float64(floatShares) * shortPercent / 100),
		BorrowFee:      borrowFee,
		AvgVolume:      avgVolume,
		MarketCap:      md.Price * float64(floatShares),
		InsiderPercent: insiderPercent,
	}, nil
}

// FetchReferenceHistory replays a 7 day hourly walk for the reference
// asset. Every timeframe reads the same series; callers slice the
// periods they need.
func (p *SyntheticProvider) FetchReferenceHistory(ctx context.Context, timeframe string) ([]contracts.Candle, error) {
	s := newStream(p.refSymbol, "reference")

	end := time.Now().Truncate(time.Hour)
	candles := make([]contracts.Candle, referenceHours)

	close := referenceBase
	for i := 0; i < referenceHours; i++ {
		if i > 0 {
			close *= 1 + s.Normal(0, referenceVol)
		}
		candles[i] = contracts.Candle{
			Timestamp: end.Add(-time.Duration(referenceHours-1-i) * time.Hour),
			Close:     close,
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"symbol":    p.refSymbol,
		"timeframe": timeframe,
		"candles":   len(candles),
	}).Debug("Generated synthetic reference history")

	return candles, nil
}

// snapshot derives the full deterministic quote for a symbol. Prices
// skew toward the low-priced names a momentum scan cares about.
func (p *SyntheticProvider) snapshot(symbol string) *contracts.MarketSnapshot {
	s := newStream(symbol, "snapshot")

	u := s.Float64()
	price := round2(2 + 398*u*u)

	high := round2(price * (1 + s.Uniform(0, 0.05)))
	low := round2(price * (1 - s.Uniform(0, 0.05)))
	open := round2(s.Uniform(low, high))
	vwap := round2(s.Uniform(low, high))
	volume := int64(s.Uniform(500_000, 10_000_000))

	return &contracts.MarketSnapshot{
		Symbol:    symbol,
		Price:     price,
		Volume:    volume,
		VWAP:      vwap,
		High:      high,
		Low:       low,
		Open:      open,
		Timestamp: time.Now(),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
