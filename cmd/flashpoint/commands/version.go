package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

const cliVersion = "1.0.0"

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 Flashpoint Scanner")
	PrintKeyValue("Version", cliVersion, 8)
	PrintKeyValue("Go", runtime.Version(), 8)
	PrintKeyValue("Platform", runtime.GOOS+"/"+runtime.GOARCH, 8)
	return nil
}
