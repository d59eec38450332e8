package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/pkg/logger"
)

// Scanner runs one scan cycle.
type Scanner interface {
	RunScan(ctx context.Context, timeframe string, symbols []string) ([]contracts.ScanResult, error)
}

// Notifier delivers scan summaries.
type Notifier interface {
	Notify(ctx context.Context, results []contracts.ScanResult) error
}

// ScanJob runs the full-universe scan on an interval and pushes
// candidates to the notifier.
type ScanJob struct {
	scanner   Scanner
	notifier  Notifier
	timeframe string
	interval  time.Duration
	logger    *logger.Logger

	mu       sync.Mutex
	inFlight bool
}

// NewScanJob creates the recurring scan job. notifier may be nil.
func NewScanJob(scanner Scanner, notifier Notifier, timeframe string, interval time.Duration, log *logger.Logger) *ScanJob {
	return &ScanJob{
		scanner:   scanner,
		notifier:  notifier,
		timeframe: timeframe,
		interval:  interval,
		logger:    log.WithField("job", "market_scan"),
	}
}

func (j *ScanJob) Name() string {
	return "market_scan"
}

func (j *ScanJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.interval)
}

// Run executes one scan cycle. A cycle that fires while the previous
// one is still scanning is skipped, not queued.
func (j *ScanJob) Run(ctx context.Context) error {
	j.mu.Lock()
	if j.inFlight {
		j.mu.Unlock()
		j.logger.Debug("Previous scan still running, skipping cycle")
		return nil
	}
	j.inFlight = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.inFlight = false
		j.mu.Unlock()
	}()

	results, err := j.scanner.RunScan(ctx, j.timeframe, nil)
	if err != nil {
		return fmt.Errorf("run scan: %w", err)
	}

	if len(results) == 0 {
		j.logger.Info("No candidates found")
		return nil
	}

	for _, r := range results {
		fields := map[string]interface{}{
			"rank":   r.Rank,
			"symbol": r.Symbol,
			"score":  r.Score,
		}
		if r.TargetStrike != nil {
			fields["target"] = *r.TargetStrike
		}
		j.logger.WithFields(fields).Info("Candidate")
	}

	if j.notifier != nil {
		if err := j.notifier.Notify(ctx, results); err != nil {
			j.logger.WithError(err).Warn("Failed to send scan notification")
		}
	}

	return nil
}
