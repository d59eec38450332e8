package output

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/flashpoint/internal/contracts"
)

// Format names accepted by the CLI --format flag and Render.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatDetailed = "detailed"
	FormatCards    = "cards"
)

const (
	noCandidates    = "No candidates found meeting the criteria."
	noOpportunities = "No trade opportunities found."
)

// Formatter renders ranked scan results for the console and for files.
// All renderings return strings; callers decide where they go.
type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

// Render dispatches on the format name. Empty format means table.
func (f *Formatter) Render(format string, results []contracts.ScanResult, metadata map[string]interface{}) (string, error) {
	switch format {
	case FormatTable, "":
		return f.Table(results), nil
	case FormatJSON:
		return f.JSON(results, metadata)
	case FormatDetailed:
		return f.Detailed(results), nil
	case FormatCards:
		return f.Cards(results), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

type scanReport struct {
	ScanTimestamp   string                 `json:"scan_timestamp"`
	TotalCandidates int                    `json:"total_candidates"`
	Metadata        map[string]interface{} `json:"metadata"`
	Candidates      []reportCandidate      `json:"candidates"`
}

type reportCandidate struct {
	Rank             int       `json:"rank"`
	Symbol           string    `json:"symbol"`
	Score            float64   `json:"score"`
	CurrentPrice     float64   `json:"current_price"`
	VWAP             float64   `json:"vwap"`
	TargetStrike     *float64  `json:"target_strike"`
	ProbabilityReach float64   `json:"probability_reach"`
	ExpectedReturn   float64   `json:"expected_return"`
	Timeframe        string    `json:"timeframe"`
	EntryZone        entryZone `json:"entry_zone"`
	StopLoss         float64   `json:"stop_loss"`
	SqueezeFactors   []string  `json:"squeeze_factors"`
	Reasoning        string    `json:"reasoning"`
}

type entryZone struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// JSON renders a machine-readable scan report. Prices round to cents,
// scores to one decimal, probabilities and returns to three.
func (f *Formatter) JSON(results []contracts.ScanResult, metadata map[string]interface{}) (string, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	report := scanReport{
		ScanTimestamp:   time.Now().Format(time.RFC3339),
		TotalCandidates: len(results),
		Metadata:        metadata,
		Candidates:      make([]reportCandidate, 0, len(results)),
	}

	for _, r := range results {
		c := reportCandidate{
			Rank:             r.Rank,
			Symbol:           r.Symbol,
			Score:            roundTo(r.Score, 1),
			CurrentPrice:     roundTo(r.CurrentPrice, 2),
			VWAP:             roundTo(r.VWAP, 2),
			ProbabilityReach: roundTo(r.ProbabilityReach, 3),
			ExpectedReturn:   roundTo(r.ExpectedReturn, 3),
			Timeframe:        r.Timeframe,
			EntryZone: entryZone{
				Low:  roundTo(r.EntryZone[0], 2),
				High: roundTo(r.EntryZone[1], 2),
			},
			StopLoss:       roundTo(r.StopLoss, 2),
			SqueezeFactors: r.SqueezeFactors,
			Reasoning:      r.Reasoning,
		}
		if r.TargetStrike != nil {
			target := roundTo(*r.TargetStrike, 2)
			c.TargetStrike = &target
		}
		if c.SqueezeFactors == nil {
			c.SqueezeFactors = []string{}
		}
		report.Candidates = append(report.Candidates, c)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal scan report: %w", err)
	}
	return string(data), nil
}

var (
	tableColumns = []string{"Rank", "Symbol", "Score", "Price", "Target", "Return", "Prob", "Timeframe"}
	tableWidths  = []int{4, 8, 6, 8, 8, 8, 6, 12}
)

// Table renders an aligned text table, one row per candidate.
func (f *Formatter) Table(results []contracts.ScanResult) string {
	if len(results) == 0 {
		return noCandidates
	}

	var lines []string
	lines = append(lines, "🚀 Market Scanner Results")
	lines = append(lines, tableRow(tableColumns))
	lines = append(lines, strings.Repeat("─", tableWidth()))

	for _, r := range results {
		target := "N/A"
		if r.TargetStrike != nil {
			target = FormatCurrency(*r.TargetStrike)
		}
		lines = append(lines, tableRow([]string{
			strconv.Itoa(r.Rank),
			r.Symbol,
			fmt.Sprintf("%.0f", r.Score),
			FormatCurrency(r.CurrentPrice),
			target,
			FormatPercentage(r.ExpectedReturn),
			fmt.Sprintf("%.0f%%", r.ProbabilityReach*100),
			r.Timeframe,
		}))
	}

	return strings.Join(lines, "\n")
}

func tableRow(values []string) string {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprintf("%-*s", tableWidths[i], v)
	}
	return strings.TrimRight(strings.Join(cells, "  "), " ")
}

func tableWidth() int {
	total := 0
	for _, w := range tableWidths {
		total += w
	}
	return total + 2*(len(tableWidths)-1)
}

// Detailed renders a full per-candidate breakdown.
func (f *Formatter) Detailed(results []contracts.ScanResult) string {
	if len(results) == 0 {
		return noCandidates
	}

	var lines []string
	lines = append(lines, "🎯 MARKET SCANNER RESULTS")
	lines = append(lines, strings.Repeat("=", 50))
	lines = append(lines, fmt.Sprintf("Scan Time: %s", time.Now().Format("2006-01-02 15:04:05")))
	lines = append(lines, fmt.Sprintf("Candidates Found: %d", len(results)))
	lines = append(lines, "")

	for _, r := range results {
		lines = append(lines, fmt.Sprintf("#%d %s", r.Rank, r.Symbol))
		lines = append(lines, strings.Repeat("-", 30))
		lines = append(lines, fmt.Sprintf("Score: %.0f/100", r.Score))
		lines = append(lines, fmt.Sprintf("Current Price: %s", FormatCurrency(r.CurrentPrice)))
		lines = append(lines, fmt.Sprintf("VWAP: %s", FormatCurrency(r.VWAP)))

		if r.TargetStrike != nil {
			lines = append(lines, fmt.Sprintf("Target Strike: %s", FormatCurrency(*r.TargetStrike)))
			movePct := (*r.TargetStrike - r.CurrentPrice) / r.CurrentPrice * 100
			lines = append(lines, fmt.Sprintf("Required Move: %+.1f%%", movePct))
		}

		lines = append(lines, fmt.Sprintf("Expected Return: %s", FormatPercentage(r.ExpectedReturn)))
		lines = append(lines, fmt.Sprintf("Probability: %.0f%%", r.ProbabilityReach*100))
		lines = append(lines, fmt.Sprintf("Timeframe: %s", r.Timeframe))
		lines = append(lines, fmt.Sprintf("Entry Zone: %s - %s", FormatCurrency(r.EntryZone[0]), FormatCurrency(r.EntryZone[1])))
		lines = append(lines, fmt.Sprintf("Stop Loss: %s", FormatCurrency(r.StopLoss)))

		if len(r.SqueezeFactors) > 0 {
			lines = append(lines, fmt.Sprintf("Squeeze Factors: %s", strings.Join(r.SqueezeFactors, ", ")))
		}

		lines = append(lines, fmt.Sprintf("Reasoning: %s", r.Reasoning))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// Cards renders one compact banner per candidate, three factors max.
func (f *Formatter) Cards(results []contracts.ScanResult) string {
	if len(results) == 0 {
		return noOpportunities
	}

	cards := make([]string, 0, len(results))
	for _, r := range results {
		var lines []string
		lines = append(lines, fmt.Sprintf("🎯 TRADE CARD #%d", r.Rank))
		lines = append(lines, strings.Repeat("=", 25))
		lines = append(lines, fmt.Sprintf("Symbol: %s", r.Symbol))
		lines = append(lines, fmt.Sprintf("Entry: %s", FormatCurrency(r.CurrentPrice)))

		if r.TargetStrike != nil {
			lines = append(lines, fmt.Sprintf("Target: %s", FormatCurrency(*r.TargetStrike)))
		}

		lines = append(lines, fmt.Sprintf("Stop: %s", FormatCurrency(r.StopLoss)))
		lines = append(lines, fmt.Sprintf("Expected Return: %s", FormatPercentage(r.ExpectedReturn)))
		lines = append(lines, fmt.Sprintf("Probability: %.0f%%", r.ProbabilityReach*100))
		lines = append(lines, fmt.Sprintf("Timeframe: %s", r.Timeframe))
		lines = append(lines, fmt.Sprintf("Score: %.0f/100", r.Score))

		if len(r.SqueezeFactors) > 0 {
			top := r.SqueezeFactors
			if len(top) > 3 {
				top = top[:3]
			}
			lines = append(lines, fmt.Sprintf("Factors: %s", strings.Join(top, ", ")))
		}

		cards = append(cards, strings.Join(lines, "\n"))
	}

	return strings.Join(cards, "\n\n")
}

// FormatPercentage renders a decimal fraction as a percentage, one decimal.
func FormatPercentage(value float64) string {
	return fmt.Sprintf("%.1f%%", value*100)
}

// FormatCurrency renders a dollar amount to cents.
func FormatCurrency(value float64) string {
	return fmt.Sprintf("$%.2f", value)
}

func roundTo(value float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(value*pow) / pow
}
