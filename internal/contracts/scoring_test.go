package contracts

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestCompositeScore_RankKey(t *testing.T) {
	score := &CompositeScore{
		Symbol:           "GME",
		TotalScore:       80,
		ProbabilityReach: 0.7,
		RiskReward:       4.0,
	}

	// Expected: 80*0.7 + 0.7*30 + 4.0*5
	expected := 80*0.7 + 0.7*30 + 4.0*5

	got := score.RankKey()
	epsilon := 0.0001
	if diff := got - expected; diff > epsilon || diff < -epsilon {
		t.Errorf("RankKey() = %v, want %v", got, expected)
	}

	// Probability should outrank risk/reward at equal scores.
	confident := &CompositeScore{TotalScore: 80, ProbabilityReach: 0.9, RiskReward: 1.0}
	risky := &CompositeScore{TotalScore: 80, ProbabilityReach: 0.5, RiskReward: 3.0}
	if confident.RankKey() <= risky.RankKey() {
		t.Errorf("RankKey() favored risk/reward over probability: %v <= %v",
			confident.RankKey(), risky.RankKey())
	}
}

func TestScanResult_JSON(t *testing.T) {
	strike := 155.0
	original := &ScanResult{
		Rank:             1,
		Symbol:           "AAPL",
		Score:            82.5,
		CurrentPrice:     150.0,
		VWAP:             149.8,
		TargetStrike:     &strike,
		ProbabilityReach: 0.62,
		ExpectedReturn:   0.0431,
		Timeframe:        "2-4 hours",
		EntryZone:        [2]float64{148.5, 151.5},
		StopLoss:         142.5,
		SqueezeFactors:   []string{"options_pressure", "squeeze_fuel"},
		Reasoning:        "Score: 82/100",
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded ScanResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if decoded.Symbol != original.Symbol {
		t.Errorf("Symbol mismatch: got %s, want %s", decoded.Symbol, original.Symbol)
	}
	if decoded.TargetStrike == nil || *decoded.TargetStrike != strike {
		t.Errorf("TargetStrike mismatch: got %v, want %v", decoded.TargetStrike, strike)
	}
	if decoded.EntryZone != original.EntryZone {
		t.Errorf("EntryZone mismatch: got %v, want %v", decoded.EntryZone, original.EntryZone)
	}

	// A result with no target omits the key entirely.
	noTarget, err := json.Marshal(&ScanResult{Rank: 2, Symbol: "AMC"})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if strings.Contains(string(noTarget), "target_strike") {
		t.Errorf("Expected target_strike omitted, got %s", noTarget)
	}
}
