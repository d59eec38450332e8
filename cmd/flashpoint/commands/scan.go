package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/flashpoint/internal/output"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a one-button market scan",
	Long: `Runs a full scan of the symbol universe.

The scan validates connectivity, fetches market data in batches,
scores every symbol and prints the ranked candidates. With --symbols
only the given symbols are scanned.

Example:
  go run ./cmd/flashpoint scan
  go run ./cmd/flashpoint scan --timeframe 4h --format json
  go run ./cmd/flashpoint scan --symbols GME,AMC --save results.json`,
	RunE: runScan,
}

var (
	scanTimeframe string
	scanFormat    string
	scanSave      string
	scanSymbols   string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	// Flags
	scanCmd.Flags().StringVar(&scanTimeframe, "timeframe", "1h", "timeframe (1h, 2h, 4h, 1d)")
	scanCmd.Flags().StringVar(&scanFormat, "format", output.FormatTable, "output format (table, json, detailed, cards)")
	scanCmd.Flags().StringVar(&scanSave, "save", "", "save results to file")
	scanCmd.Flags().StringVar(&scanSymbols, "symbols", "", "comma-separated list of symbols to scan")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Flashpoint Market Scanner ===")

	deps, err := initScanner()
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx := context.Background()

	fmt.Println("🔍 Validating setup...")
	if failed := failedChecks(deps.scanner.Validate(ctx)); len(failed) > 0 {
		PrintWarning(fmt.Sprintf("Setup issues: %s", strings.Join(failed, ", ")))
		fmt.Println("Continuing with available components...")
	}

	var symbols []string
	if scanSymbols != "" {
		symbols = splitSymbolList(scanSymbols)
		fmt.Printf("📋 Custom symbols: %s\n", strings.Join(symbols, ", "))
	}

	fmt.Printf("🔄 Scanning market (timeframe: %s)...\n", scanTimeframe)
	results, err := deps.scanner.RunScan(ctx, scanTimeframe, symbols)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(results) == 0 {
		PrintError("No candidates found meeting criteria")
		fmt.Println("💡 Try adjusting filters or scanning different symbols")
		return nil
	}

	fmt.Printf("\n✅ Found %d candidates:\n", len(results))

	formatter := output.NewFormatter()
	rendered, err := formatter.Render(scanFormat, results, scanMetadata(ctx, deps))
	if err != nil {
		return err
	}
	fmt.Println(rendered)

	if scanSave != "" {
		if err := os.WriteFile(scanSave, []byte(rendered), 0644); err != nil {
			return fmt.Errorf("save results: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Results saved to %s", scanSave))
	}

	return nil
}

// scanMetadata carries scan parameters into the JSON report.
func scanMetadata(ctx context.Context, deps *scannerDeps) map[string]interface{} {
	return map[string]interface{}{
		"timeframe":        scanTimeframe,
		"benchmark_symbol": deps.cfg.Benchmark.Symbol,
		"benchmark_return": deps.benchmark.ExpectedReturn(ctx, scanTimeframe),
		"min_score":        deps.cfg.Scanner.MinScore,
	}
}

func splitSymbolList(raw string) []string {
	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	return symbols
}
