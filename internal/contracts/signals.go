package contracts

// Dealer flow classifications produced by the pressure engine.
const (
	DealerFlowBullish = "bullish"
	DealerFlowBearish = "bearish"
	DealerFlowNeutral = "neutral"
)

// GammaWall is a strike with concentrated dealer positioning.
// Derived per scan, ranked by Gamma descending.
type GammaWall struct {
	Strike      float64 `json:"strike"`
	Gamma       float64 `json:"gamma"`     // |net gamma|, ranking magnitude
	NetGamma    float64 `json:"net_gamma"` // signed: calls OI minus puts OI, distance-decayed
	Distance    float64 `json:"distance"`  // |strike - price| / price
	Probability float64 `json:"probability"`
}

// IgnitionSignal holds momentum and volatility-expansion timing facts.
// Created fresh per (symbol, scan); never mutated.
type IgnitionSignal struct {
	VWAPMomentum         bool    `json:"vwap_momentum"`
	ExpansionEnergy      bool    `json:"expansion_energy"`
	EntryTiming          bool    `json:"entry_timing"`
	VWAPSpreadSlope      float64 `json:"vwap_spread_slope"`
	BandExpansionRatio   float64 `json:"band_expansion_ratio"`
	DistanceFromExtremes float64 `json:"distance_from_extremes"`
	Score                float64 `json:"score"` // 0 ~ 100
}

// Triggered reports whether any ignition flag fired
func (s *IgnitionSignal) Triggered() bool {
	return s.VWAPMomentum || s.ExpansionEnergy || s.EntryTiming
}

// PressureSignal holds options-dealer positioning facts.
type PressureSignal struct {
	TargetStrike     *float64    `json:"target_strike,omitempty"`
	GammaWalls       []GammaWall `json:"gamma_walls"`
	MaxPain          float64     `json:"max_pain"`
	PutCallRatio     float64     `json:"put_call_ratio"` // may be +Inf when puts trade against zero calls
	DealerFlow       string      `json:"dealer_flow"`    // bullish, bearish, neutral
	ProbabilityReach float64     `json:"probability_reach"`
	Score            float64     `json:"score"` // 0 ~ 100
}

// HasTarget reports whether a target wall was selected
func (s *PressureSignal) HasTarget() bool {
	return s.TargetStrike != nil
}

// FuelSignal holds squeeze-fuel facts from fundamentals and volume.
type FuelSignal struct {
	LowFloat          bool     `json:"low_float"`
	HighShortInterest bool     `json:"high_short_interest"`
	HighBorrowCost    bool     `json:"high_borrow_cost"`
	VolumeSurge       bool     `json:"volume_surge"`
	RelativeVolume    float64  `json:"relative_volume"`
	ShortSqueezeScore float64  `json:"short_squeeze_score"` // 0 ~ 100
	FuelFactors       []string `json:"fuel_factors"`
	Score             float64  `json:"score"` // 0 ~ 100
}
