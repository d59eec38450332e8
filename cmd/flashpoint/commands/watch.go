package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/flashpoint/internal/scheduler"
	"github.com/wonny/flashpoint/internal/scheduler/jobs"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuous market watching mode",
	Long: `Runs the scanner on a fixed interval until interrupted.

Each cycle scans the full universe, logs ranked candidates and pushes
them to the Telegram notifier when one is configured. When tracking
is enabled, aged scan history is pruned once a day.

Example:
  go run ./cmd/flashpoint watch
  go run ./cmd/flashpoint watch --interval 5m --timeframe 4h`,
	RunE: runWatch,
}

var (
	watchInterval  time.Duration
	watchTimeframe string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	// Flags
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "scan interval (default from WATCH_INTERVAL)")
	watchCmd.Flags().StringVar(&watchTimeframe, "timeframe", "1h", "timeframe (1h, 2h, 4h, 1d)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Flashpoint Continuous Scanner ===")

	deps, err := initScanner()
	if err != nil {
		return err
	}
	defer deps.Close()

	if watchInterval > 0 {
		deps.cfg.Watch.Interval = watchInterval
	}
	fmt.Printf("Interval: %v | Timeframe: %s\n\n", deps.cfg.Watch.Interval, watchTimeframe)

	sched := scheduler.New(deps.log).WithRetryPolicy(1, deps.cfg.Watch.ErrorBackoff)

	scanJob := jobs.NewScanJob(deps.scanner, deps.notifier, watchTimeframe, deps.cfg.Watch.Interval, deps.log)
	if err := sched.AddJob(scanJob); err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}
	if deps.tracker != nil {
		if err := sched.AddJob(jobs.NewMaintenanceJob(deps.tracker, 0, deps.log)); err != nil {
			return fmt.Errorf("register cleanup job: %w", err)
		}
	}

	sched.Start()

	// @every waits one full interval before the first run.
	if err := sched.RunJob(scanJob.Name()); err != nil {
		return fmt.Errorf("start first scan: %w", err)
	}

	fmt.Println("✅ Continuous scanner started")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.Jobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scanner...")
	sched.Stop()
	fmt.Println("⏹️  Continuous scanning stopped")

	return nil
}
