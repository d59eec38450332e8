package tracking

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/database"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := database.New(config.DatabaseConfig{
		URL:      url,
		MaxConns: 5,
		MinConns: 1,
	})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(db.Close)

	repo := NewRepository(db.Pool)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return repo
}

func TestLogScanAndRecentScans(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	strike := 105.0
	rec := contracts.ScanLog{
		Timeframe:       "1h",
		SymbolsScanned:  12,
		BenchmarkReturn: 0.021,
		TookMs:          340,
		Results: []contracts.ScanResult{
			{Rank: 1, Symbol: "GME", Score: 85, CurrentPrice: 100, TargetStrike: &strike, StopLoss: 95, ExpectedReturn: 0.05, ProbabilityReach: 0.8},
			{Rank: 2, Symbol: "AMC", Score: 72, CurrentPrice: 10, StopLoss: 9.5, ExpectedReturn: 0.03, ProbabilityReach: 0.7},
		},
	}

	if err := repo.LogScan(ctx, rec); err != nil {
		t.Fatalf("LogScan() error = %v", err)
	}

	scans, err := repo.RecentScans(ctx, 1)
	if err != nil {
		t.Fatalf("RecentScans() error = %v", err)
	}
	if len(scans) != 1 {
		t.Fatalf("RecentScans() returned %d scans, want 1", len(scans))
	}

	scan := scans[0]
	if scan.Timeframe != "1h" {
		t.Errorf("Timeframe = %q, want %q", scan.Timeframe, "1h")
	}
	if scan.TotalSymbols != 12 {
		t.Errorf("TotalSymbols = %d, want 12", scan.TotalSymbols)
	}
	if scan.CandidatesFound != 2 {
		t.Errorf("CandidatesFound = %d, want 2", scan.CandidatesFound)
	}
	if scan.Metadata == nil {
		t.Error("Expected scan metadata")
	}
}

func TestTradeLifecycle(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	entry := contracts.ScanResult{
		Symbol: "GME", Score: 85, CurrentPrice: 100, StopLoss: 95,
		ExpectedReturn: 0.05, ProbabilityReach: 0.8, Reasoning: "test entry",
	}

	tradeID, err := repo.LogTradeEntry(ctx, 0, entry)
	if err != nil {
		t.Fatalf("LogTradeEntry() error = %v", err)
	}
	if tradeID <= 0 {
		t.Fatalf("LogTradeEntry() returned id %d", tradeID)
	}

	if err := repo.LogTradeExit(ctx, tradeID, 105, OutcomeTargetHit); err != nil {
		t.Fatalf("LogTradeExit() error = %v", err)
	}

	stats, err := repo.PerformanceStats(ctx, 1)
	if err != nil {
		t.Fatalf("PerformanceStats() error = %v", err)
	}
	if stats.TotalTrades < 1 {
		t.Errorf("TotalTrades = %d, want at least 1", stats.TotalTrades)
	}
	if stats.WinRate <= 0 {
		t.Errorf("WinRate = %f, want > 0", stats.WinRate)
	}

	effectiveness, err := repo.SignalEffectiveness(ctx)
	if err != nil {
		t.Fatalf("SignalEffectiveness() error = %v", err)
	}
	if _, ok := effectiveness["score_80_90"]; !ok {
		t.Error("Expected score_80_90 bucket")
	}
}

func TestLogTradeExitUnknownTrade(t *testing.T) {
	repo := testRepository(t)

	if err := repo.LogTradeExit(context.Background(), -1, 100, OutcomeManualExit); err == nil {
		t.Error("Expected error for unknown trade")
	}
}

func TestCleanupOldData(t *testing.T) {
	repo := testRepository(t)

	deleted, err := repo.CleanupOldData(context.Background(), 0)
	if err != nil {
		t.Fatalf("CleanupOldData() error = %v", err)
	}
	if deleted < 0 {
		t.Errorf("deleted = %d", deleted)
	}
}

func TestScanMetadata(t *testing.T) {
	results := []contracts.ScanResult{
		{Symbol: "AAA", Score: 95},
		{Symbol: "BBB", Score: 88},
		{Symbol: "CCC", Score: 74},
		{Symbol: "DDD", Score: 61},
	}

	meta := scanMetadata(results)

	symbols, ok := meta["top_symbols"].([]string)
	if !ok {
		t.Fatalf("top_symbols has type %T", meta["top_symbols"])
	}
	if !reflect.DeepEqual(symbols, []string{"AAA", "BBB", "CCC"}) {
		t.Errorf("top_symbols = %v", symbols)
	}

	scores, ok := meta["top_scores"].([]float64)
	if !ok {
		t.Fatalf("top_scores has type %T", meta["top_scores"])
	}
	if !reflect.DeepEqual(scores, []float64{95, 88, 74}) {
		t.Errorf("top_scores = %v", scores)
	}
}

func TestScanMetadataEmpty(t *testing.T) {
	meta := scanMetadata(nil)

	if symbols := meta["top_symbols"].([]string); len(symbols) != 0 {
		t.Errorf("top_symbols = %v, want empty", symbols)
	}
	if scores := meta["top_scores"].([]float64); len(scores) != 0 {
		t.Errorf("top_scores = %v, want empty", scores)
	}
}
