package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/flashpoint/internal/contracts"
)

// Trade outcomes recorded on exit.
const (
	OutcomeTargetHit  = "target_hit"
	OutcomeStopHit    = "stop_hit"
	OutcomeManualExit = "manual_exit"
	OutcomeTimeExit   = "time_exit"
)

const defaultRetentionDays = 90

// PerformanceStats summarizes closed trades over a lookback window.
type PerformanceStats struct {
	TotalTrades      int64   `json:"total_trades"`
	WinRate          float64 `json:"win_rate"`
	AvgReturn        float64 `json:"avg_return"`
	AvgScore         float64 `json:"avg_score"`
	AvgProbability   float64 `json:"avg_probability"`
	AvgDurationHours float64 `json:"avg_duration_hours"`
}

// BucketStats summarizes trade outcomes for one score bucket.
type BucketStats struct {
	TotalTrades int64   `json:"total_trades"`
	WinRate     float64 `json:"win_rate"`
	AvgReturn   float64 `json:"avg_return"`
}

// ScanSummary is one row of scan history.
type ScanSummary struct {
	ID              int64                  `json:"scan_id"`
	ScanTime        time.Time              `json:"scan_time"`
	Timeframe       string                 `json:"timeframe"`
	TotalSymbols    int                    `json:"total_symbols"`
	CandidatesFound int                    `json:"candidates_found"`
	BenchmarkReturn float64                `json:"benchmark_return"`
	DurationMs      int64                  `json:"duration_ms"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// Repository persists scan history and trade outcomes. It is
// best-effort infrastructure: callers log failures and keep scanning.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tracking repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LogScan records a completed scan and a trade entry per candidate.
func (r *Repository) LogScan(ctx context.Context, rec contracts.ScanLog) error {
	metadata, err := json.Marshal(scanMetadata(rec.Results))
	if err != nil {
		return fmt.Errorf("failed to marshal scan metadata: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	var scanID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO scan_history (
			scan_time, timeframe, total_symbols, candidates_found,
			benchmark_return, duration_ms, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, now, rec.Timeframe, rec.SymbolsScanned, len(rec.Results),
		rec.BenchmarkReturn, rec.TookMs, metadata,
	).Scan(&scanID)
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}

	query := `
		INSERT INTO trade_entries (
			scan_id, symbol, entry_time, entry_price, target_price,
			stop_loss, expected_return, probability, score, reasoning
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, res := range rec.Results {
		_, err := tx.Exec(ctx, query,
			scanID, res.Symbol, now, res.CurrentPrice, res.TargetStrike,
			res.StopLoss, res.ExpectedReturn, res.ProbabilityReach,
			res.Score, res.Reasoning,
		)
		if err != nil {
			return fmt.Errorf("failed to insert trade entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit scan log: %w", err)
	}

	return nil
}

// LogTradeEntry records a single trade entry, for candidates entered
// manually. A scanID of zero records the entry without a scan link.
// Returns the trade id.
func (r *Repository) LogTradeEntry(ctx context.Context, scanID int64, res contracts.ScanResult) (int64, error) {
	query := `
		INSERT INTO trade_entries (
			scan_id, symbol, entry_time, entry_price, target_price,
			stop_loss, expected_return, probability, score, reasoning
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var scanRef interface{}
	if scanID > 0 {
		scanRef = scanID
	}

	var tradeID int64
	err := r.pool.QueryRow(ctx, query,
		scanRef, res.Symbol, time.Now(), res.CurrentPrice, res.TargetStrike,
		res.StopLoss, res.ExpectedReturn, res.ProbabilityReach,
		res.Score, res.Reasoning,
	).Scan(&tradeID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade entry: %w", err)
	}

	return tradeID, nil
}

// LogTradeExit records a trade exit, computing the realized return and
// holding duration from the stored entry.
func (r *Repository) LogTradeExit(ctx context.Context, tradeID int64, exitPrice float64, outcome string) error {
	var entryTime time.Time
	var entryPrice float64

	err := r.pool.QueryRow(ctx, `
		SELECT entry_time, entry_price FROM trade_entries WHERE id = $1
	`, tradeID).Scan(&entryTime, &entryPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("trade %d not found", tradeID)
	}
	if err != nil {
		return fmt.Errorf("failed to load trade entry: %w", err)
	}

	exitTime := time.Now()
	actualReturn := (exitPrice - entryPrice) / entryPrice
	durationMinutes := int(exitTime.Sub(entryTime).Minutes())

	_, err = r.pool.Exec(ctx, `
		INSERT INTO trade_exits (
			trade_id, exit_time, exit_price, actual_return, outcome, duration_minutes
		) VALUES ($1, $2, $3, $4, $5, $6)
	`, tradeID, exitTime, exitPrice, actualReturn, outcome, durationMinutes)
	if err != nil {
		return fmt.Errorf("failed to insert trade exit: %w", err)
	}

	return nil
}

// PerformanceStats aggregates closed trades from the last days.
func (r *Repository) PerformanceStats(ctx context.Context, days int) (*PerformanceStats, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN te.actual_return > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(te.actual_return), 0),
			COALESCE(AVG(tr.score), 0),
			COALESCE(AVG(tr.probability), 0),
			COALESCE(AVG(te.duration_minutes), 0)
		FROM trade_exits te
		JOIN trade_entries tr ON te.trade_id = tr.id
		WHERE te.exit_time > $1
	`

	var stats PerformanceStats
	var winners int64
	var avgDurationMinutes float64

	err := r.pool.QueryRow(ctx, query, cutoff).Scan(
		&stats.TotalTrades, &winners, &stats.AvgReturn,
		&stats.AvgScore, &stats.AvgProbability, &avgDurationMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance stats: %w", err)
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(winners) / float64(stats.TotalTrades)
	}
	stats.AvgDurationHours = avgDurationMinutes / 60

	return &stats, nil
}

// SignalEffectiveness reports win rates by composite score bucket,
// for closed trades with a score of 60 or above.
func (r *Repository) SignalEffectiveness(ctx context.Context) (map[string]BucketStats, error) {
	query := `
		SELECT
			CASE
				WHEN tr.score >= 90 THEN 'score_90_100'
				WHEN tr.score >= 80 THEN 'score_80_90'
				WHEN tr.score >= 70 THEN 'score_70_80'
				ELSE 'score_60_70'
			END,
			COUNT(*),
			COALESCE(SUM(CASE WHEN te.actual_return > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(te.actual_return), 0)
		FROM trade_exits te
		JOIN trade_entries tr ON te.trade_id = tr.id
		WHERE tr.score >= 60
		GROUP BY 1
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query signal effectiveness: %w", err)
	}
	defer rows.Close()

	effectiveness := make(map[string]BucketStats)

	for rows.Next() {
		var bucket string
		var stats BucketStats
		var winners int64

		if err := rows.Scan(&bucket, &stats.TotalTrades, &winners, &stats.AvgReturn); err != nil {
			return nil, fmt.Errorf("failed to scan bucket: %w", err)
		}
		if stats.TotalTrades > 0 {
			stats.WinRate = float64(winners) / float64(stats.TotalTrades)
		}
		effectiveness[bucket] = stats
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return effectiveness, nil
}

// RecentScans returns the latest scan summaries, newest first.
func (r *Repository) RecentScans(ctx context.Context, limit int) ([]ScanSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, scan_time, timeframe, total_symbols, candidates_found,
		       benchmark_return, duration_ms, metadata
		FROM scan_history
		ORDER BY scan_time DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	scans := make([]ScanSummary, 0)

	for rows.Next() {
		var scan ScanSummary
		var metadata []byte

		err := rows.Scan(
			&scan.ID, &scan.ScanTime, &scan.Timeframe, &scan.TotalSymbols,
			&scan.CandidatesFound, &scan.BenchmarkReturn, &scan.DurationMs,
			&metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &scan.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}

		scans = append(scans, scan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return scans, nil
}

// CleanupOldData deletes tracking rows older than the given number of
// days and returns how many rows were removed.
func (r *Repository) CleanupOldData(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = defaultRetentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var deleted int64

	// Exits first, they reference entries.
	tag, err := tx.Exec(ctx, `
		DELETE FROM trade_exits
		WHERE trade_id IN (SELECT id FROM trade_entries WHERE entry_time < $1)
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old exits: %w", err)
	}
	deleted += tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM trade_entries WHERE entry_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old entries: %w", err)
	}
	deleted += tag.RowsAffected()

	tag, err = tx.Exec(ctx, `DELETE FROM scan_history WHERE scan_time < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old scans: %w", err)
	}
	deleted += tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}

	return deleted, nil
}

// scanMetadata summarizes the top candidates for the scan row.
func scanMetadata(results []contracts.ScanResult) map[string]interface{} {
	top := results
	if len(top) > 3 {
		top = top[:3]
	}

	scores := make([]float64, 0, len(top))
	symbols := make([]string, 0, len(top))
	for _, res := range top {
		scores = append(scores, res.Score)
		symbols = append(symbols, res.Symbol)
	}

	return map[string]interface{}{
		"top_scores":  scores,
		"top_symbols": symbols,
	}
}
