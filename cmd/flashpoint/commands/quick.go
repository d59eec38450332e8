package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/flashpoint/internal/output"
)

// quickCmd represents the quick command
var quickCmd = &cobra.Command{
	Use:   "quick SYMBOL...",
	Short: "Quick scan of specific symbols",
	Long: `Analyzes only the given symbols instead of the full universe.

Example:
  go run ./cmd/flashpoint quick GME
  go run ./cmd/flashpoint quick GME AMC --format table`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuick,
}

var (
	quickFormat string
)

func init() {
	rootCmd.AddCommand(quickCmd)

	// Flags
	quickCmd.Flags().StringVar(&quickFormat, "format", output.FormatCards, "output format (table, json, detailed, cards)")
}

func runQuick(cmd *cobra.Command, args []string) error {
	symbols := make([]string, 0, len(args))
	for _, arg := range args {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(arg)))
	}
	fmt.Printf("⚡ Quick scan: %s\n", strings.Join(symbols, ", "))

	deps, err := initScanner()
	if err != nil {
		return err
	}
	defer deps.Close()

	results, err := deps.scanner.QuickScan(context.Background(), symbols)
	if err != nil {
		return fmt.Errorf("quick scan failed: %w", err)
	}

	if len(results) == 0 {
		PrintError("No opportunities found")
		return nil
	}

	formatter := output.NewFormatter()
	rendered, err := formatter.Render(quickFormat, results, nil)
	if err != nil {
		return err
	}
	fmt.Println(rendered)

	return nil
}
