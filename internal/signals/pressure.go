package signals

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/logger"
)

const (
	gammaWallThreshold   = 1000.0
	gammaDecayRate       = 5.0
	targetMaxDistance    = 0.15
	targetMinProbability = 0.3
	timeToExpiry         = 1.0 / 365
)

// PressureEngine analyzes options positioning: gamma walls, max pain,
// put/call ratio and the dealer flow bias they imply.
type PressureEngine struct {
	cfg    config.ScannerConfig
	logger *logger.Logger
}

// NewPressureEngine creates a new pressure engine
func NewPressureEngine(cfg config.ScannerConfig, log *logger.Logger) *PressureEngine {
	return &PressureEngine{
		cfg:    cfg,
		logger: log,
	}
}

// Analyze computes the pressure signal for one symbol. On a degraded
// computation it returns a neutral signal together with an error
// wrapping contracts.ErrSignalDegraded. A chain with no strikes is not
// degraded, it simply produces no walls.
func (e *PressureEngine) Analyze(ctx context.Context, md *contracts.MarketSnapshot, chain *contracts.OptionsChainSnapshot) (contracts.PressureSignal, error) {
	neutral := contracts.PressureSignal{
		PutCallRatio: 1.0,
		DealerFlow:   contracts.DealerFlowNeutral,
		GammaWalls:   []contracts.GammaWall{},
	}

	if md == nil || md.Price <= 0 {
		return neutral, fmt.Errorf("%w: pressure requires a priced snapshot", contracts.ErrSignalDegraded)
	}
	if chain == nil {
		neutral.MaxPain = md.Price
		return neutral, fmt.Errorf("%w: pressure requires an options chain for %s", contracts.ErrSignalDegraded, md.Symbol)
	}

	walls := e.findGammaWalls(md.Price, chain)
	target := e.findTargetWall(walls)
	maxPain := e.maxPain(md.Price, chain)
	pcr := e.putCallRatio(chain)
	flow := e.dealerFlow(walls, pcr, md.Price, maxPain)

	probability := 0.0
	var targetStrike *float64
	if target != nil {
		strike := target.Strike
		targetStrike = &strike
		probability = target.Probability
	}

	score := e.pressureScore(probability, flow, pcr, walls)

	// Keep only the top walls for reporting
	top := walls
	if len(top) > 3 {
		top = top[:3]
	}

	e.logger.WithFields(map[string]interface{}{
		"symbol":      md.Symbol,
		"walls":       len(walls),
		"max_pain":    maxPain,
		"pcr":         pcr,
		"dealer_flow": flow,
		"score":       score,
	}).Debug("Calculated pressure signal")

	return contracts.PressureSignal{
		TargetStrike:     targetStrike,
		GammaWalls:       top,
		MaxPain:          maxPain,
		PutCallRatio:     pcr,
		DealerFlow:       flow,
		ProbabilityReach: probability,
		Score:            score,
	}, nil
}

// findGammaWalls scans the chain for strikes with significant net
// gamma exposure, strongest first.
func (e *PressureEngine) findGammaWalls(price float64, chain *contracts.OptionsChainSnapshot) []contracts.GammaWall {
	walls := make([]contracts.GammaWall, 0, len(chain.Strikes))

	for _, strike := range chain.Strikes {
		callsOI := chain.CallOI[strike]
		putsOI := chain.PutOI[strike]

		distance := math.Abs(strike-price) / price
		gammaFactor := math.Exp(-distance * gammaDecayRate)

		// Dealers short calls add positive gamma, long puts subtract
		netGamma := float64(callsOI)*gammaFactor - float64(putsOI)*gammaFactor

		if math.Abs(netGamma) > gammaWallThreshold {
			walls = append(walls, contracts.GammaWall{
				Strike:      strike,
				Gamma:       math.Abs(netGamma),
				NetGamma:    netGamma,
				Distance:    distance,
				Probability: e.probabilityReach(price, strike, chain),
			})
		}
	}

	sort.SliceStable(walls, func(i, j int) bool {
		return walls[i].Gamma > walls[j].Gamma
	})
	return walls
}

// findTargetWall picks the most attractive wall: close enough and
// likely enough, best probability-weighted gamma. Falls back to the
// strongest wall when nothing qualifies.
func (e *PressureEngine) findTargetWall(walls []contracts.GammaWall) *contracts.GammaWall {
	if len(walls) == 0 {
		return nil
	}

	var best *contracts.GammaWall
	bestKey := math.Inf(-1)
	for i := range walls {
		wall := &walls[i]
		if wall.Distance >= targetMaxDistance || wall.Probability <= targetMinProbability {
			continue
		}
		if key := wall.Probability * wall.Gamma; key > bestKey {
			best = wall
			bestKey = key
		}
	}

	if best == nil {
		return &walls[0]
	}
	return best
}

// maxPain returns the strike where aggregate option holder pain is
// minimal. An empty chain pins max pain at the current price.
func (e *PressureEngine) maxPain(price float64, chain *contracts.OptionsChainSnapshot) float64 {
	if len(chain.Strikes) == 0 {
		return price
	}

	best := chain.Strikes[0]
	bestPain := math.Inf(1)
	for _, strike := range chain.Strikes {
		pain := 0.0
		if price > strike {
			pain += float64(chain.CallOI[strike]) * (price - strike)
		}
		if price < strike {
			pain += float64(chain.PutOI[strike]) * (strike - price)
		}
		if pain < bestPain {
			best = strike
			bestPain = pain
		}
	}
	return best
}

func (e *PressureEngine) putCallRatio(chain *contracts.OptionsChainSnapshot) float64 {
	callVolume := chain.TotalCallVolume()
	putVolume := chain.TotalPutVolume()

	if callVolume == 0 {
		if putVolume > 0 {
			return math.Inf(1)
		}
		return 1.0
	}
	return float64(putVolume) / float64(callVolume)
}

// dealerFlow votes bullish and bearish indicators against each other.
// A side needs a two point lead to win.
func (e *PressureEngine) dealerFlow(walls []contracts.GammaWall, pcr, price, maxPain float64) string {
	if len(walls) == 0 {
		return contracts.DealerFlowNeutral
	}
	strongest := walls[0]

	bullish := 0
	if strongest.NetGamma > 0 && strongest.Strike > price {
		bullish += 2
	}
	if pcr < 0.8 {
		bullish++
	}
	if maxPain > price {
		bullish++
	}

	bearish := 0
	if strongest.NetGamma < 0 && strongest.Strike < price {
		bearish += 2
	}
	if pcr > 1.2 {
		bearish++
	}
	if maxPain < price {
		bearish++
	}

	switch {
	case bullish > bearish+1:
		return contracts.DealerFlowBullish
	case bearish > bullish+1:
		return contracts.DealerFlowBearish
	default:
		return contracts.DealerFlowNeutral
	}
}

// probabilityReach approximates the chance of touching the strike
// within one session using a single-day Black-Scholes d2.
func (e *PressureEngine) probabilityReach(price, strike float64, chain *contracts.OptionsChainSnapshot) float64 {
	if strike == price {
		return 1.0
	}

	avgIV := chain.AverageIV()
	d2 := (math.Log(price/strike) - 0.5*avgIV*avgIV*timeToExpiry) / (avgIV * math.Sqrt(timeToExpiry))

	var probability float64
	if strike > price {
		probability = 1 - NormCDF(d2)
	} else {
		probability = NormCDF(d2)
	}

	if math.IsNaN(probability) {
		return 0.99
	}
	return Clamp(probability, 0.01, 0.99)
}

func (e *PressureEngine) pressureScore(probability float64, dealerFlow string, pcr float64, walls []contracts.GammaWall) float64 {
	score := 0.0

	// Probability component (0-40 points)
	score += probability * 40

	// Dealer flow component (0-30 points)
	switch dealerFlow {
	case contracts.DealerFlowBullish:
		score += 30
	case contracts.DealerFlowBearish:
		// Bearish positioning still squeezes
		score += 20
	}

	// Put/call ratio component (0-20 points)
	switch {
	case pcr < 0.7:
		score += 20
	case pcr < 1.0:
		score += 15
	case pcr > 1.5:
		score += 10
	}

	// Gamma wall strength (0-10 points)
	if len(walls) > 0 {
		score += math.Min(10, walls[0].Gamma/5000)
	}

	return math.Min(100, score)
}

// Reasoning renders the pressure signal as a human-readable summary
func (e *PressureEngine) Reasoning(sig contracts.PressureSignal) string {
	reasons := make([]string, 0, 4)

	if sig.TargetStrike != nil {
		reasons = append(reasons, fmt.Sprintf("Target strike $%.2f (%.1f%% probability)", *sig.TargetStrike, sig.ProbabilityReach*100))
	}

	reasons = append(reasons, "Dealer flow: "+sig.DealerFlow)

	if sig.PutCallRatio < 0.8 {
		reasons = append(reasons, fmt.Sprintf("Low P/C ratio (%.2f) - bullish", sig.PutCallRatio))
	} else if sig.PutCallRatio > 1.2 {
		reasons = append(reasons, fmt.Sprintf("High P/C ratio (%.2f) - squeeze potential", sig.PutCallRatio))
	}

	if len(sig.GammaWalls) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d significant gamma wall(s)", len(sig.GammaWalls)))
	}

	return strings.Join(reasons, "; ")
}
