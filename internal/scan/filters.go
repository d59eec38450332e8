package scan

import (
	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/scoring"
)

// Rejection reasons counted during the basic filter pass.
const (
	reasonPriceRange  = "price_range"
	reasonNoVolume    = "no_volume"
	reasonInvalidOHLC = "invalid_ohlc"
	reasonHalted      = "halted"
)

// A flat tape with almost no prints looks like a halt, not a setup.
const haltedVolumeFloor = 1000

// applyBasicFilters drops symbols that cannot possibly rank before
// the expensive scoring pass runs.
func (o *Orchestrator) applyBasicFilters(data []scoring.SymbolData) []scoring.SymbolData {
	filtered := make([]scoring.SymbolData, 0, len(data))
	rejected := make(map[string]int)

	for _, d := range data {
		reason := o.rejectionReason(d.Market)
		if reason != "" {
			rejected[reason]++
			o.logger.WithFields(map[string]interface{}{
				"symbol": d.Market.Symbol,
				"reason": reason,
			}).Debug("Filtered out")
			continue
		}
		filtered = append(filtered, d)
	}

	o.logger.WithFields(map[string]interface{}{
		"passed":   len(filtered),
		"rejected": rejected,
	}).Info("Applied basic filters")

	return filtered
}

func (o *Orchestrator) rejectionReason(md *contracts.MarketSnapshot) string {
	if md.Price < o.cfg.Scanner.MinPrice || md.Price > o.cfg.Scanner.MaxPrice {
		return reasonPriceRange
	}
	if md.Volume <= 0 {
		return reasonNoVolume
	}
	if md.High <= 0 || md.Low <= 0 || md.Open <= 0 {
		return reasonInvalidOHLC
	}
	if md.High == md.Low && md.Low == md.Price && md.Volume < haltedVolumeFloor {
		return reasonHalted
	}
	return ""
}
