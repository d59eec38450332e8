package contracts

// CompositeScore fuses the three signal engines for one symbol.
// Created by the composite scorer per symbol per scan.
type CompositeScore struct {
	Symbol           string   `json:"symbol"`
	TotalScore       float64  `json:"total_score"` // 0 ~ 100
	IgnitionScore    float64  `json:"ignition_score"`
	PressureScore    float64  `json:"pressure_score"`
	FuelScore        float64  `json:"fuel_score"`
	BeatsBenchmark   bool     `json:"beats_benchmark"`
	ExpectedReturn   float64  `json:"expected_return"`
	BenchmarkReturn  float64  `json:"benchmark_return"`
	ProbabilityReach float64  `json:"probability_reach"`
	TargetPrice      *float64 `json:"target_price,omitempty"`
	RiskReward       float64  `json:"risk_reward"`
}

// RankKey is the composite ordering key: score dominates, probability
// and risk/reward break near-ties. Higher is better.
func (c *CompositeScore) RankKey() float64 {
	return c.TotalScore*0.7 + c.ProbabilityReach*30 + c.RiskReward*5
}

// ScanResult is one ranked candidate emitted by a scan cycle.
// Immutable; lifetime is one scan response.
type ScanResult struct {
	Rank             int        `json:"rank"`
	Symbol           string     `json:"symbol"`
	Score            float64    `json:"score"`
	CurrentPrice     float64    `json:"current_price"`
	VWAP             float64    `json:"vwap"`
	TargetStrike     *float64   `json:"target_strike,omitempty"`
	ProbabilityReach float64    `json:"probability_reach"`
	ExpectedReturn   float64    `json:"expected_return"`
	Timeframe        string     `json:"timeframe"`
	EntryZone        [2]float64 `json:"entry_zone"` // [low, high]
	StopLoss         float64    `json:"stop_loss"`
	SqueezeFactors   []string   `json:"squeeze_factors"`
	Reasoning        string     `json:"reasoning"`
}
