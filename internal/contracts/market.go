package contracts

import (
	"math"
	"time"
)

// MarketSnapshot is one intraday quote for a symbol.
// Immutable once created; produced once per fetch.
type MarketSnapshot struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	VWAP      float64   `json:"vwap"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Open      float64   `json:"open"`
	Timestamp time.Time `json:"timestamp"`
}

// DistanceFromExtremes returns the minimum distance from the day's
// high or low as a fraction of the current price.
func (m *MarketSnapshot) DistanceFromExtremes() float64 {
	if m.Price <= 0 {
		return 1.0
	}
	fromHigh := math.Abs(m.Price-m.High) / m.Price
	fromLow := math.Abs(m.Price-m.Low) / m.Price
	return math.Min(fromHigh, fromLow)
}

// DailyRange returns (high - low) / price, the intraday range fraction.
func (m *MarketSnapshot) DailyRange() float64 {
	if m.Price <= 0 {
		return 0.0
	}
	return (m.High - m.Low) / m.Price
}

// OptionsChainSnapshot holds one expiry's chain for a symbol.
// Strikes are ordered ascending; the per-strike maps are keyed by strike.
type OptionsChainSnapshot struct {
	Symbol     string              `json:"symbol"`
	Strikes    []float64           `json:"strikes"`
	CallVolume map[float64]int64   `json:"call_volume"`
	PutVolume  map[float64]int64   `json:"put_volume"`
	CallOI     map[float64]int64   `json:"call_oi"`
	PutOI      map[float64]int64   `json:"put_oi"`
	IV         map[float64]float64 `json:"iv"`
	Timestamp  time.Time           `json:"timestamp"`
}

// TotalCallVolume sums call volume across all strikes
func (o *OptionsChainSnapshot) TotalCallVolume() int64 {
	var sum int64
	for _, v := range o.CallVolume {
		sum += v
	}
	return sum
}

// TotalPutVolume sums put volume across all strikes
func (o *OptionsChainSnapshot) TotalPutVolume() int64 {
	var sum int64
	for _, v := range o.PutVolume {
		sum += v
	}
	return sum
}

// AverageIV returns the mean implied volatility across the chain,
// or 0 when the chain carries no IV data.
func (o *OptionsChainSnapshot) AverageIV() float64 {
	if len(o.IV) == 0 {
		return 0.0
	}
	var sum float64
	for _, iv := range o.IV {
		sum += iv
	}
	return sum / float64(len(o.IV))
}

// FundamentalSnapshot holds float, short-interest and ownership metrics.
type FundamentalSnapshot struct {
	Symbol         string  `json:"symbol"`
	FloatShares    int64   `json:"float_shares"`
	ShortPercent   float64 `json:"short_percent"`
	ShortShares    int64   `json:"short_shares"`
	BorrowFee      float64 `json:"borrow_fee"` // annualized %
	AvgVolume      int64   `json:"avg_volume"`
	MarketCap      float64 `json:"market_cap"`
	InsiderPercent float64 `json:"insider_percent"`
}

// Candle is one bar of reference-asset history.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}
