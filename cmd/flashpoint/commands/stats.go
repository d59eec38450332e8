package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/flashpoint/internal/tracking"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/database"
	"github.com/wonny/flashpoint/pkg/logger"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View performance statistics",
	Long: `Summarizes tracked trade outcomes over a lookback window.

Shows win rate and return averages for closed trades, plus win rate
by score bucket. Requires tracking to be enabled.

Example:
  go run ./cmd/flashpoint stats
  go run ./cmd/flashpoint stats --days 7
  go run ./cmd/flashpoint stats --export report.json`,
	RunE: runStats,
}

var (
	statsDays   int
	statsExport string
)

// Score buckets from best to worst, as keyed by the tracking store.
var bucketOrder = []string{"score_90_100", "score_80_90", "score_70_80", "score_60_70"}

const exportScanLimit = 20

func init() {
	rootCmd.AddCommand(statsCmd)

	// Flags
	statsCmd.Flags().IntVar(&statsDays, "days", 30, "number of days to analyze")
	statsCmd.Flags().StringVar(&statsExport, "export", "", "export report to file")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.TrackingEnabled {
		PrintWarning("Performance tracking not enabled")
		return nil
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	log := logger.New(cfg)

	db, err := database.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to tracking database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := tracking.NewRepository(db.Pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure tracking schema: %w", err)
	}

	stats, err := repo.PerformanceStats(ctx, statsDays)
	if err != nil {
		return fmt.Errorf("performance stats: %w", err)
	}

	if stats.TotalTrades == 0 {
		fmt.Println("📊 No trade data available yet")
	} else {
		fmt.Printf("📊 Performance Stats (%d days)\n", statsDays)
		PrintSeparator()
		PrintKeyValue("Total Trades", fmt.Sprintf("%d", stats.TotalTrades), 12)
		PrintKeyValue("Win Rate", fmt.Sprintf("%.1f%%", stats.WinRate*100), 12)
		PrintKeyValue("Avg Return", fmt.Sprintf("%.2f%%", stats.AvgReturn*100), 12)
		PrintKeyValue("Avg Score", fmt.Sprintf("%.1f", stats.AvgScore), 12)
		PrintKeyValue("Avg Duration", fmt.Sprintf("%.1fh", stats.AvgDurationHours), 12)

		effectiveness, err := repo.SignalEffectiveness(ctx)
		if err != nil {
			log.WithError(err).Warn("Signal effectiveness unavailable")
		} else if len(effectiveness) > 0 {
			fmt.Println("\n🎯 Signal Effectiveness:")
			for _, key := range bucketOrder {
				bucket, ok := effectiveness[key]
				if !ok {
					continue
				}
				rangeLabel := strings.ReplaceAll(strings.TrimPrefix(key, "score_"), "_", "-")
				fmt.Printf("  Score %s: %.1f%% win rate, %.2f%% avg return\n",
					rangeLabel, bucket.WinRate*100, bucket.AvgReturn*100)
			}
		}
	}

	if statsExport != "" {
		if err := exportReport(ctx, repo, statsExport, statsDays); err != nil {
			return fmt.Errorf("export report: %w", err)
		}
		PrintSuccess(fmt.Sprintf("Report exported to %s", statsExport))
	}

	return nil
}

type performanceReport struct {
	ReportDate          time.Time                       `json:"report_date"`
	PeriodDays          int                             `json:"period_days"`
	OverallPerformance  *tracking.PerformanceStats      `json:"overall_performance"`
	SignalEffectiveness map[string]tracking.BucketStats `json:"signal_effectiveness"`
	RecentScans         []tracking.ScanSummary          `json:"recent_scans"`
}

// exportReport writes a JSON performance report combining overall
// stats, per-bucket effectiveness and recent scan history.
func exportReport(ctx context.Context, repo *tracking.Repository, filename string, days int) error {
	overall, err := repo.PerformanceStats(ctx, days)
	if err != nil {
		return err
	}
	effectiveness, err := repo.SignalEffectiveness(ctx)
	if err != nil {
		return err
	}
	recent, err := repo.RecentScans(ctx, exportScanLimit)
	if err != nil {
		return err
	}

	report := performanceReport{
		ReportDate:          time.Now(),
		PeriodDays:          days,
		OverallPerformance:  overall,
		SignalEffectiveness: effectiveness,
		RecentScans:         recent,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
