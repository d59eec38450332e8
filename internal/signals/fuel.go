package signals

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/logger"
)

const (
	microFloatShares   = 5_000_000
	smallFloatShares   = 10_000_000
	mediumFloatShares  = 20_000_000
	highShortThreshold = 15.0
	highBorrowFee      = 50.0
)

// FuelEngine scores squeeze potential from float size, short interest,
// borrow cost and relative volume.
type FuelEngine struct {
	cfg    config.ScannerConfig
	logger *logger.Logger
}

// NewFuelEngine creates a new fuel engine
func NewFuelEngine(cfg config.ScannerConfig, log *logger.Logger) *FuelEngine {
	return &FuelEngine{
		cfg:    cfg,
		logger: log,
	}
}

// Analyze computes the fuel signal for one symbol. On a degraded
// computation it returns a neutral zero-score signal together with an
// error wrapping contracts.ErrSignalDegraded.
func (e *FuelEngine) Analyze(ctx context.Context, md *contracts.MarketSnapshot, fund *contracts.FundamentalSnapshot) (contracts.FuelSignal, error) {
	neutral := contracts.FuelSignal{
		RelativeVolume: 1.0,
		FuelFactors:    []string{},
	}

	if md == nil || md.Price <= 0 {
		return neutral, fmt.Errorf("%w: fuel requires a priced snapshot", contracts.ErrSignalDegraded)
	}
	if fund == nil {
		return neutral, fmt.Errorf("%w: fuel requires fundamentals for %s", contracts.ErrSignalDegraded, md.Symbol)
	}

	lowFloat := fund.FloatShares < e.cfg.MaxFloatShares
	highShortInterest := fund.ShortPercent > highShortThreshold
	highBorrowCost := fund.BorrowFee > highBorrowFee

	relativeVolume := 1.0
	if fund.AvgVolume > 0 {
		relativeVolume = float64(md.Volume) / float64(fund.AvgVolume)
	}
	volumeSurge := relativeVolume > e.cfg.MinVolumeMultiple

	squeezeScore := e.squeezeScore(fund, relativeVolume)
	factors := e.fuelFactors(lowFloat, highShortInterest, highBorrowCost, volumeSurge, fund)
	score := e.fuelScore(lowFloat, highShortInterest, highBorrowCost, volumeSurge, relativeVolume, squeezeScore)

	e.logger.WithFields(map[string]interface{}{
		"symbol":       md.Symbol,
		"float_shares": fund.FloatShares,
		"short_pct":    fund.ShortPercent,
		"rel_volume":   relativeVolume,
		"squeeze":      squeezeScore,
		"score":        score,
	}).Debug("Calculated fuel signal")

	return contracts.FuelSignal{
		LowFloat:          lowFloat,
		HighShortInterest: highShortInterest,
		HighBorrowCost:    highBorrowCost,
		VolumeSurge:       volumeSurge,
		RelativeVolume:    relativeVolume,
		ShortSqueezeScore: squeezeScore,
		FuelFactors:       factors,
		Score:             score,
	}, nil
}

// squeezeScore grades the raw squeeze ingredients in additive tiers
func (e *FuelEngine) squeezeScore(fund *contracts.FundamentalSnapshot, relativeVolume float64) float64 {
	score := 0.0

	// Float factor (smaller is better)
	switch {
	case fund.FloatShares < microFloatShares:
		score += 30
	case fund.FloatShares < smallFloatShares:
		score += 25
	case fund.FloatShares < mediumFloatShares:
		score += 15
	}

	// Short interest factor
	switch {
	case fund.ShortPercent > 30:
		score += 25
	case fund.ShortPercent > 20:
		score += 20
	case fund.ShortPercent > 15:
		score += 10
	}

	// Borrow cost factor
	switch {
	case fund.BorrowFee > 100:
		score += 20
	case fund.BorrowFee > 50:
		score += 15
	case fund.BorrowFee > 25:
		score += 5
	}

	// Volume factor
	switch {
	case relativeVolume > 5:
		score += 15
	case relativeVolume > 3:
		score += 10
	case relativeVolume > 2:
		score += 5
	}

	// Insider ownership bonus (harder to borrow shares)
	switch {
	case fund.InsiderPercent > 40:
		score += 10
	case fund.InsiderPercent > 30:
		score += 5
	}

	return math.Min(100, score)
}

// fuelFactors labels the squeeze ingredients for reporting
func (e *FuelEngine) fuelFactors(lowFloat, highShortInterest, highBorrowCost, volumeSurge bool, fund *contracts.FundamentalSnapshot) []string {
	factors := []string{}

	if lowFloat {
		switch {
		case fund.FloatShares < microFloatShares:
			factors = append(factors, "micro_float")
		case fund.FloatShares < smallFloatShares:
			factors = append(factors, "small_float")
		default:
			factors = append(factors, "low_float")
		}
	}

	if highShortInterest {
		switch {
		case fund.ShortPercent > 30:
			factors = append(factors, "extreme_short_interest")
		case fund.ShortPercent > 20:
			factors = append(factors, "high_short_interest")
		default:
			factors = append(factors, "elevated_short_interest")
		}
	}

	if highBorrowCost {
		if fund.BorrowFee > 100 {
			factors = append(factors, "extreme_borrow_cost")
		} else {
			factors = append(factors, "high_borrow_cost")
		}
	}

	if volumeSurge {
		factors = append(factors, "volume_surge")
	}

	if fund.InsiderPercent > 40 {
		factors = append(factors, "high_insider_ownership")
	}

	if fund.FloatShares < microFloatShares && fund.ShortPercent > 25 {
		factors = append(factors, "squeeze_setup")
	}

	return factors
}

// fuelScore combines the flags into a 0-100 fuel score
func (e *FuelEngine) fuelScore(lowFloat, highShortInterest, highBorrowCost, volumeSurge bool, relativeVolume, squeezeScore float64) float64 {
	score := 0.0

	// Float component (0-25 points)
	if lowFloat {
		score += 25
	}

	// Short interest component (0-25 points)
	if highShortInterest {
		score += 25
	}

	// Borrow cost component (0-20 points)
	if highBorrowCost {
		score += 20
	}

	// Volume component (0-20 points)
	if volumeSurge {
		score += math.Min(20, (relativeVolume-2)*5)
	}

	// Squeeze score bonus (0-10 points)
	score += math.Min(10, squeezeScore/10)

	return math.Min(100, score)
}

// SqueezePotential estimates the price multiple a forced cover could
// produce, keyed low/medium/high.
func (e *FuelEngine) SqueezePotential(sig contracts.FuelSignal, fund *contracts.FundamentalSnapshot) map[string]float64 {
	if sig.ShortSqueezeScore < 50 {
		return map[string]float64{"low": 1.1, "medium": 1.2, "high": 1.3}
	}

	baseMultiplier := 1.0 + fund.ShortPercent/100

	var floatMultiplier float64
	switch {
	case fund.FloatShares < microFloatShares:
		floatMultiplier = 1.5
	case fund.FloatShares < smallFloatShares:
		floatMultiplier = 1.3
	default:
		floatMultiplier = 1.1
	}

	volumeMultiplier := 1.0 + math.Min(0.5, (sig.RelativeVolume-2)*0.1)

	total := baseMultiplier * floatMultiplier * volumeMultiplier
	return map[string]float64{
		"low":    total * 0.8,
		"medium": total,
		"high":   total * 1.5,
	}
}

// Reasoning renders the fuel signal as a human-readable summary
func (e *FuelEngine) Reasoning(sig contracts.FuelSignal, fund *contracts.FundamentalSnapshot) string {
	reasons := make([]string, 0, 6)

	if sig.LowFloat && fund != nil {
		reasons = append(reasons, fmt.Sprintf("Low float (%d shares)", fund.FloatShares))
	}
	if sig.HighShortInterest && fund != nil {
		reasons = append(reasons, fmt.Sprintf("High short interest (%.1f%%)", fund.ShortPercent))
	}
	if sig.HighBorrowCost && fund != nil {
		reasons = append(reasons, fmt.Sprintf("High borrow cost (%.0f%% annual)", fund.BorrowFee))
	}
	if sig.VolumeSurge {
		reasons = append(reasons, fmt.Sprintf("Volume surge (%.1fx average)", sig.RelativeVolume))
	}
	if sig.ShortSqueezeScore > 70 {
		reasons = append(reasons, fmt.Sprintf("Strong squeeze setup (score: %.0f)", sig.ShortSqueezeScore))
	}
	if len(sig.FuelFactors) > 0 {
		reasons = append(reasons, "Fuel factors: "+strings.Join(sig.FuelFactors, ", "))
	}
	if len(reasons) == 0 {
		return "Limited squeeze fuel detected"
	}
	return strings.Join(reasons, "; ")
}
