package commands

import (
	"context"
	"fmt"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/data"
	"github.com/wonny/flashpoint/internal/notify"
	"github.com/wonny/flashpoint/internal/scan"
	"github.com/wonny/flashpoint/internal/scoring"
	"github.com/wonny/flashpoint/internal/tracking"
	"github.com/wonny/flashpoint/internal/universe"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/database"
	"github.com/wonny/flashpoint/pkg/logger"
	"github.com/wonny/flashpoint/pkg/redis"
)

// scannerDeps bundles the full scanning stack plus the handles that
// must be closed when a command exits.
type scannerDeps struct {
	cfg       *config.Config
	log       *logger.Logger
	redis     *redis.Client
	db        *database.DB
	store     *universe.Store
	feed      *data.Feed
	benchmark *scoring.Benchmark
	scanner   *scan.Orchestrator
	tracker   *tracking.Repository
	notifier  *notify.Notifier
}

// initScanner wires the scanner from configuration. Optional pieces
// (Redis, the tracking database) degrade to warnings so a scan can
// still run with whatever is available.
func initScanner() (*scannerDeps, error) {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to Redis (universe + market data cache)
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		redisClient, _ = redis.New(config.RedisConfig{Enabled: false})
	}

	// 4. Symbol universe
	store := universe.NewStore(redisClient)
	if added, err := store.Seed(ctx, cfg.Data.SeedFile); err != nil {
		log.WithError(err).Warn("Universe seed failed")
	} else if added > 0 {
		log.WithFields(map[string]interface{}{
			"symbols": added,
			"file":    cfg.Data.SeedFile,
		}).Info("Seeded symbol universe")
	}

	// 5. Market data feed
	feed, err := data.NewFeed(cfg.Data, cfg.Benchmark.Symbol, redis.NewCache(redisClient, "flashpoint"), log)
	if err != nil {
		return nil, fmt.Errorf("init data feed: %w", err)
	}

	// 6. Benchmark and scorer
	bench := scoring.NewBenchmark(feed, cfg.Benchmark, log)
	scorer := scoring.NewCompositeScorer(cfg.Scanner, bench, log)

	deps := &scannerDeps{
		cfg:       cfg,
		log:       log,
		redis:     redisClient,
		store:     store,
		feed:      feed,
		benchmark: bench,
	}

	// 7. Scan history (optional)
	var tracker contracts.ScanTracker
	if cfg.TrackingEnabled {
		db, err := database.New(cfg.Database)
		if err != nil {
			log.WithError(err).Warn("Tracking database unavailable, scan history disabled")
		} else {
			repo := tracking.NewRepository(db.Pool)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.WithError(err).Warn("Tracking schema check failed, scan history disabled")
				db.Close()
			} else {
				deps.db = db
				deps.tracker = repo
				tracker = repo
			}
		}
	}

	// 8. Scan orchestrator
	deps.scanner = scan.NewOrchestrator(*cfg, feed, store, scorer, bench, tracker, log)

	// 9. Notifier (silent when unconfigured)
	deps.notifier = notify.New(cfg.Telegram, log)

	return deps, nil
}

// Close releases network handles in reverse construction order.
func (d *scannerDeps) Close() {
	if d.db != nil {
		d.db.Close()
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.log.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

// validationOrder fixes the display order of setup probes.
var validationOrder = []struct {
	key   string
	label string
}{
	{"redis_connection", "Redis Connection"},
	{"data_feed", "Data Feed"},
	{"btc_benchmark", "BTC Benchmark"},
	{"symbol_universe", "Symbol Universe"},
}

func failedChecks(checks map[string]bool) []string {
	var failed []string
	for _, probe := range validationOrder {
		if !checks[probe.key] {
			failed = append(failed, probe.key)
		}
	}
	return failed
}
