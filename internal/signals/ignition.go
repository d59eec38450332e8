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
	bollingerWindow    = 20
	bollingerStdDevs   = 2.0
	slopeWindow        = 10
	slopeThreshold     = 0.001
	expansionThreshold = 1.5
)

// IgnitionEngine detects momentum and volatility-expansion timing signals
// from one snapshot plus a historical close series.
type IgnitionEngine struct {
	cfg    config.ScannerConfig
	logger *logger.Logger
}

// NewIgnitionEngine creates a new ignition engine
func NewIgnitionEngine(cfg config.ScannerConfig, log *logger.Logger) *IgnitionEngine {
	return &IgnitionEngine{
		cfg:    cfg,
		logger: log,
	}
}

// Analyze computes the ignition signal for one symbol. On a degraded
// computation it returns a neutral zero-score signal together with an
// error wrapping contracts.ErrSignalDegraded; the neutral signal is
// safe to keep scoring with.
func (e *IgnitionEngine) Analyze(ctx context.Context, md *contracts.MarketSnapshot, history []float64) (contracts.IgnitionSignal, error) {
	neutral := contracts.IgnitionSignal{
		BandExpansionRatio:   1.0,
		DistanceFromExtremes: 1.0,
	}

	if md == nil || md.Price <= 0 {
		return neutral, fmt.Errorf("%w: ignition requires a priced snapshot", contracts.ErrSignalDegraded)
	}
	if len(history) == 0 {
		return neutral, fmt.Errorf("%w: ignition requires price history for %s", contracts.ErrSignalDegraded, md.Symbol)
	}

	slope := e.spreadSlope(history)
	ratio := e.bandExpansionRatio(history)
	distance := md.DistanceFromExtremes()

	momentum := slope > slopeThreshold
	energy := ratio > expansionThreshold
	timing := distance < e.cfg.MaxExtremeDistance

	score := e.score(slope, ratio, distance, momentum, energy, timing)

	e.logger.WithFields(map[string]interface{}{
		"symbol":    md.Symbol,
		"slope":     slope,
		"expansion": ratio,
		"distance":  distance,
		"score":     score,
	}).Debug("Calculated ignition signal")

	return contracts.IgnitionSignal{
		VWAPMomentum:         momentum,
		ExpansionEnergy:      energy,
		EntryTiming:          timing,
		VWAPSpreadSlope:      slope,
		BandExpansionRatio:   ratio,
		DistanceFromExtremes: distance,
		Score:                score,
	}, nil
}

// spreadSlope fits a line through the last ten points of the
// price-to-SMA20 spread series. The spread proxies VWAP deviation.
func (e *IgnitionEngine) spreadSlope(history []float64) float64 {
	sma := RollingMean(history, bollingerWindow)
	if len(sma) == 0 {
		return 0.0
	}

	// Spread is aligned with the rolling mean: one value per full window.
	spreads := make([]float64, len(sma))
	offset := len(history) - len(sma)
	for i, m := range sma {
		spreads[i] = (history[offset+i] - m) / m
	}

	if len(spreads) < slopeWindow {
		return 0.0
	}
	return SlopeLeastSquares(spreads[len(spreads)-slopeWindow:])
}

// bandExpansionRatio compares the current Bollinger band width with its
// rolling average. Returns 1.0 while there is not yet enough history.
func (e *IgnitionEngine) bandExpansionRatio(history []float64) float64 {
	sma := RollingMean(history, bollingerWindow)
	sd := RollingStdDev(history, bollingerWindow)
	if len(sma) == 0 || len(sd) != len(sma) {
		return 1.0
	}

	widths := make([]float64, len(sma))
	for i := range sma {
		upper := sma[i] + bollingerStdDevs*sd[i]
		lower := sma[i] - bollingerStdDevs*sd[i]
		widths[i] = upper - lower
	}

	if len(widths) < bollingerWindow {
		return 1.0
	}

	current := widths[len(widths)-1]
	avg := Mean(widths[len(widths)-bollingerWindow:])
	if avg <= 0 {
		return 1.0
	}
	return current / avg
}

// score combines the three components into a 0-100 ignition score
func (e *IgnitionEngine) score(slope, ratio, distance float64, momentum, energy, timing bool) float64 {
	score := 0.0

	// VWAP momentum component (0-40 points)
	if momentum {
		score += math.Min(40, math.Abs(slope)*10000)
	}

	// Band expansion component (0-35 points)
	if energy {
		score += math.Min(35, (ratio-1)*35)
	}

	// Entry timing component (0-25 points)
	if timing {
		timingScore := (e.cfg.MaxExtremeDistance - distance) / e.cfg.MaxExtremeDistance
		score += timingScore * 25
	}

	return math.Min(100, score)
}

// Reasoning renders the ignition signal as a human-readable summary
func (e *IgnitionEngine) Reasoning(sig contracts.IgnitionSignal) string {
	reasons := make([]string, 0, 3)

	if sig.VWAPMomentum {
		reasons = append(reasons, fmt.Sprintf("VWAP momentum positive (slope: %.4f)", sig.VWAPSpreadSlope))
	}
	if sig.ExpansionEnergy {
		reasons = append(reasons, fmt.Sprintf("Band expansion %.1fx average", sig.BandExpansionRatio))
	}
	if sig.EntryTiming {
		reasons = append(reasons, fmt.Sprintf("Good entry timing (%.1f%% from extremes)", sig.DistanceFromExtremes*100))
	}
	if len(reasons) == 0 {
		return "Ignition signals not triggered"
	}
	return strings.Join(reasons, "; ")
}
