package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate scanner setup and connectivity",
	Long: `Probes every scanner dependency and reports what works.

Checks Redis, the market data feed, the benchmark return and the
symbol universe. The scanner runs with whatever passes; failed checks
only reduce functionality.

Example:
  go run ./cmd/flashpoint validate`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	deps, err := initScanner()
	if err != nil {
		return err
	}
	defer deps.Close()

	fmt.Println("🔧 Validating Flashpoint Scanner Setup...")
	fmt.Println()

	checks := deps.scanner.Validate(context.Background())

	allGood := true
	for _, probe := range validationOrder {
		if checks[probe.key] {
			PrintSuccess(probe.label)
		} else {
			PrintError(probe.label)
			allGood = false
		}
	}

	// The benchmark probe warmed the cache, so this prints the live hurdle.
	fmt.Println()
	PrintInfo(deps.benchmark.Summary("1h"))

	if allGood {
		fmt.Println("\n🎉 All systems operational!")
	} else {
		PrintWarning("Some components need attention")
		fmt.Println("💡 Scanner will work with available components")
	}

	return nil
}
