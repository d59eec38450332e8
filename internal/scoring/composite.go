package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/signals"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/logger"
)

const (
	strongSignalScore   = 70
	baseMoveEstimate    = 0.05
	maxMoveEstimate     = 0.50
	squeezeBoostScore   = 70
	targetProbability   = 0.5
	stopLossFraction    = 0.95
	entryZoneFraction   = 0.01
	favorableRiskReward = 10.0
	neutralRiskReward   = 1.0
)

// SymbolData bundles everything the scorer needs for one symbol. The
// scan assembles it from the data feed; nil enrichment fields degrade
// the matching engine to a neutral signal.
type SymbolData struct {
	Market       *contracts.MarketSnapshot
	History      []float64
	Chain        *contracts.OptionsChainSnapshot
	Fundamentals *contracts.FundamentalSnapshot
}

// CompositeScorer runs the three signal engines, fuses their scores
// and measures candidates against the reference benchmark.
type CompositeScorer struct {
	ignitionEngine *signals.IgnitionEngine
	pressureEngine *signals.PressureEngine
	fuelEngine     *signals.FuelEngine
	benchmark      *Benchmark
	cfg            config.ScannerConfig
	logger         *logger.Logger
}

// NewCompositeScorer creates the scorer and its engines.
func NewCompositeScorer(cfg config.ScannerConfig, benchmark *Benchmark, log *logger.Logger) *CompositeScorer {
	return &CompositeScorer{
		ignitionEngine: signals.NewIgnitionEngine(cfg, log),
		pressureEngine: signals.NewPressureEngine(cfg, log),
		fuelEngine:     signals.NewFuelEngine(cfg, log),
		benchmark:      benchmark,
		cfg:            cfg,
		logger:         log,
	}
}

// ScoreSymbol scores one symbol across all engines. Degraded engine
// inputs produce neutral sub-signals rather than failing the symbol;
// only a missing snapshot fails.
func (s *CompositeScorer) ScoreSymbol(ctx context.Context, data SymbolData, timeframe string) (*contracts.CompositeScore, error) {
	md := data.Market
	if md == nil || md.Price <= 0 {
		return nil, fmt.Errorf("score symbol: %w", contracts.ErrSnapshotUnavailable)
	}

	ignition, err := s.ignitionEngine.Analyze(ctx, md, data.History)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", md.Symbol).Debug("Ignition signal degraded")
	}
	pressure, err := s.pressureEngine.Analyze(ctx, md, data.Chain)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", md.Symbol).Debug("Pressure signal degraded")
	}
	fuel, err := s.fuelEngine.Analyze(ctx, md, data.Fundamentals)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", md.Symbol).Debug("Fuel signal degraded")
	}

	totalScore := s.weightedScore(ignition, pressure, fuel)
	expectedReturn, targetPrice := s.expectedReturn(md, pressure, fuel)

	benchmarkReturn := s.benchmark.ExpectedReturn(ctx, timeframe)

	return &contracts.CompositeScore{
		Symbol:           md.Symbol,
		TotalScore:       totalScore,
		IgnitionScore:    ignition.Score,
		PressureScore:    pressure.Score,
		FuelScore:        fuel.Score,
		BeatsBenchmark:   expectedReturn > benchmarkReturn,
		ExpectedReturn:   expectedReturn,
		BenchmarkReturn:  benchmarkReturn,
		ProbabilityReach: pressure.ProbabilityReach,
		TargetPrice:      &targetPrice,
		RiskReward:       s.riskReward(md.Price, targetPrice, expectedReturn),
	}, nil
}

// ScoreAll scores symbols concurrently, preserving input order.
// Symbols that fail to score are dropped.
func (s *CompositeScorer) ScoreAll(ctx context.Context, data []SymbolData, timeframe string) []contracts.CompositeScore {
	slots := make([]*contracts.CompositeScore, len(data))

	var wg sync.WaitGroup
	for i := range data {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			score, err := s.ScoreSymbol(ctx, data[i], timeframe)
			if err != nil {
				symbol := ""
				if data[i].Market != nil {
					symbol = data[i].Market.Symbol
				}
				s.logger.WithError(err).WithField("symbol", symbol).Warn("Scoring failed")
				return
			}
			slots[i] = score
		}(i)
	}
	wg.Wait()

	scores := make([]contracts.CompositeScore, 0, len(data))
	for _, score := range slots {
		if score != nil {
			scores = append(scores, *score)
		}
	}
	return scores
}

// FilterAndRank drops candidates that miss the benchmark, score or
// probability thresholds, then ranks the survivors and keeps the top
// configured count. Ties keep their incoming order.
func (s *CompositeScorer) FilterAndRank(scores []contracts.CompositeScore) []contracts.CompositeScore {
	filtered := make([]contracts.CompositeScore, 0, len(scores))
	for _, score := range scores {
		if !score.BeatsBenchmark {
			s.logger.WithField("symbol", score.Symbol).Debug("Filtered: failed benchmark")
			continue
		}
		if score.TotalScore < s.cfg.MinScore {
			s.logger.WithFields(map[string]interface{}{
				"symbol": score.Symbol,
				"score":  score.TotalScore,
			}).Debug("Filtered: score below threshold")
			continue
		}
		if score.ProbabilityReach < s.cfg.MinProbability {
			s.logger.WithFields(map[string]interface{}{
				"symbol":      score.Symbol,
				"probability": score.ProbabilityReach,
			}).Debug("Filtered: probability too low")
			continue
		}
		filtered = append(filtered, score)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].RankKey() > filtered[j].RankKey()
	})

	if len(filtered) > s.cfg.MaxResults {
		filtered = filtered[:s.cfg.MaxResults]
	}
	return filtered
}

// BuildResults converts ranked scores into scan results with entry
// zone, stop loss, timeframe estimate and reasoning.
func (s *CompositeScorer) BuildResults(scores []contracts.CompositeScore, snapshots map[string]*contracts.MarketSnapshot) []contracts.ScanResult {
	results := make([]contracts.ScanResult, 0, len(scores))

	for _, score := range scores {
		md := snapshots[score.Symbol]
		if md == nil {
			s.logger.WithField("symbol", score.Symbol).Warn("Missing snapshot for ranked symbol")
			continue
		}

		results = append(results, contracts.ScanResult{
			Rank:             len(results) + 1,
			Symbol:           score.Symbol,
			Score:            score.TotalScore,
			CurrentPrice:     md.Price,
			VWAP:             md.VWAP,
			TargetStrike:     score.TargetPrice,
			ProbabilityReach: score.ProbabilityReach,
			ExpectedReturn:   score.ExpectedReturn,
			Timeframe:        estimateTimeframe(score.ProbabilityReach),
			EntryZone: [2]float64{
				md.Price * (1 - entryZoneFraction),
				md.Price * (1 + entryZoneFraction),
			},
			StopLoss:       md.Price * stopLossFraction,
			SqueezeFactors: squeezeFactors(score),
			Reasoning:      s.reasoning(score),
		})
	}
	return results
}

// weightedScore fuses the engine scores with configured weights plus
// combination bonuses, capped at 100.
func (s *CompositeScorer) weightedScore(ignition contracts.IgnitionSignal, pressure contracts.PressureSignal, fuel contracts.FuelSignal) float64 {
	// Float and timing weights are folded into the fuel and ignition
	// sub-scores.
	weighted := ignition.Score*(s.cfg.IgnitionWeight/100) +
		pressure.Score*(s.cfg.PressureWeight/100) +
		fuel.Score*(s.cfg.VolumeWeight/100)

	bonus := s.combinationBonus(ignition, pressure, fuel)
	final := math.Min(100, weighted+bonus)

	s.logger.WithFields(map[string]interface{}{
		"weighted": weighted,
		"bonus":    bonus,
		"final":    final,
	}).Debug("Calculated weighted score")

	return final
}

// combinationBonus rewards signal alignment across engines.
func (s *CompositeScorer) combinationBonus(ignition contracts.IgnitionSignal, pressure contracts.PressureSignal, fuel contracts.FuelSignal) float64 {
	bonus := 0.0

	strong := 0
	if ignition.Score > strongSignalScore {
		strong++
	}
	if pressure.Score > strongSignalScore {
		strong++
	}
	if fuel.Score > strongSignalScore {
		strong++
	}
	if strong >= 3 {
		bonus += 15
	} else if strong >= 2 {
		bonus += 8
	}

	if ignition.VWAPMomentum && pressure.ProbabilityReach > 0.7 {
		bonus += 5
	}
	if fuel.LowFloat && fuel.HighShortInterest && pressure.DealerFlow == contracts.DealerFlowBullish {
		bonus += 8
	}
	if ignition.ExpansionEnergy && fuel.VolumeSurge {
		bonus += 5
	}

	return bonus
}

// expectedReturn estimates the probability-adjusted return and its
// target price. The options target wall wins when it carries enough
// probability; otherwise the move is estimated from volume, range and
// squeeze fuel.
func (s *CompositeScorer) expectedReturn(md *contracts.MarketSnapshot, pressure contracts.PressureSignal, fuel contracts.FuelSignal) (float64, float64) {
	price := md.Price

	var target, basicReturn float64
	if pressure.HasTarget() && pressure.ProbabilityReach > targetProbability {
		target = *pressure.TargetStrike
		basicReturn = (target - price) / price
	} else {
		move := s.estimateMove(md, fuel)
		target = price * (1 + move)
		basicReturn = move
	}

	adjusted := basicReturn * pressure.ProbabilityReach

	if fuel.ShortSqueezeScore > squeezeBoostScore {
		adjusted *= 1.0 + fuel.ShortSqueezeScore/200
	}

	return adjusted, target
}

// estimateMove sizes a potential move when no options target exists.
func (s *CompositeScorer) estimateMove(md *contracts.MarketSnapshot, fuel contracts.FuelSignal) float64 {
	move := baseMoveEstimate

	if fuel.RelativeVolume > 3 {
		move *= 1.5
	} else if fuel.RelativeVolume > 2 {
		move *= 1.2
	}

	if md.High > 0 && md.Low > 0 {
		dailyRange := (md.High - md.Low) / md.Price
		if dailyRange > 0.15 {
			move *= 1.3
		}
	}

	if fuel.ShortSqueezeScore > 80 {
		move *= 2.0
	} else if fuel.ShortSqueezeScore > 60 {
		move *= 1.5
	}

	return math.Min(maxMoveEstimate, move)
}

// riskReward relates the expected gain to a stop 5% under entry.
func (s *CompositeScorer) riskReward(price, target, expectedReturn float64) float64 {
	if target <= price {
		return neutralRiskReward
	}

	stopLoss := price * stopLossFraction
	potentialLoss := (price - stopLoss) / price
	if potentialLoss <= 0 {
		return favorableRiskReward
	}
	return expectedReturn / potentialLoss
}

// reasoning renders the human-readable summary line for a candidate.
func (s *CompositeScorer) reasoning(score contracts.CompositeScore) string {
	reasons := []string{fmt.Sprintf("Score: %.0f/100", score.TotalScore)}

	if score.ExpectedReturn > 0.1 {
		reasons = append(reasons, fmt.Sprintf("Expected return: %.1f%%", score.ExpectedReturn*100))
	}
	if score.TargetPrice != nil {
		reasons = append(reasons, fmt.Sprintf("Target: $%.2f", *score.TargetPrice))
	}

	reasons = append(reasons, fmt.Sprintf("vs BTC: %.1f%% vs %.1f%%",
		score.ExpectedReturn*100, score.BenchmarkReturn*100))

	if score.ProbabilityReach > 0.7 {
		reasons = append(reasons, fmt.Sprintf("High probability: %.1f%%", score.ProbabilityReach*100))
	}
	if score.RiskReward > 3 {
		reasons = append(reasons, fmt.Sprintf("Good R/R: %.1f:1", score.RiskReward))
	}

	return strings.Join(reasons, "; ")
}

// squeezeFactors labels the drivers behind a candidate's rank.
func squeezeFactors(score contracts.CompositeScore) []string {
	factors := make([]string, 0, 5)

	if score.IgnitionScore > strongSignalScore {
		factors = append(factors, "momentum_ignition")
	}
	if score.PressureScore > strongSignalScore {
		factors = append(factors, "options_pressure")
	}
	if score.FuelScore > strongSignalScore {
		factors = append(factors, "squeeze_fuel")
	}
	if score.ProbabilityReach > 0.8 {
		factors = append(factors, "high_probability")
	}
	if score.ExpectedReturn > 0.15 {
		factors = append(factors, "high_return_potential")
	}

	return factors
}

// estimateTimeframe maps reach probability to an expected window.
func estimateTimeframe(probability float64) string {
	switch {
	case probability > 0.8:
		return "20-60 minutes"
	case probability > 0.7:
		return "1-2 hours"
	case probability > 0.6:
		return "2-4 hours"
	default:
		return "4+ hours"
	}
}
