package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/flashpoint/internal/tracking"
	"github.com/wonny/flashpoint/pkg/logger"
)

const (
	defaultLookbackDays = 30
	recentScanLimit     = 10
)

// Tracker is the slice of the tracking repository the API consumes.
type Tracker interface {
	PerformanceStats(ctx context.Context, days int) (*tracking.PerformanceStats, error)
	SignalEffectiveness(ctx context.Context) (map[string]tracking.BucketStats, error)
	RecentScans(ctx context.Context, limit int) ([]tracking.ScanSummary, error)
}

// PerformanceHandler serves historical scan and trade analytics.
type PerformanceHandler struct {
	tracker Tracker
	logger  *logger.Logger
}

// NewPerformanceHandler creates the performance handler. tracker may
// be nil when persistence is disabled.
func NewPerformanceHandler(tracker Tracker, log *logger.Logger) *PerformanceHandler {
	return &PerformanceHandler{tracker: tracker, logger: log}
}

// PerformanceResponse bundles trade stats, per-bucket signal
// effectiveness and recent scan history.
type PerformanceResponse struct {
	PeriodDays          int                             `json:"period_days"`
	OverallPerformance  *tracking.PerformanceStats      `json:"overall_performance"`
	SignalEffectiveness map[string]tracking.BucketStats `json:"signal_effectiveness"`
	RecentScans         []tracking.ScanSummary          `json:"recent_scans"`
	Timestamp           time.Time                       `json:"timestamp"`
}

// GetPerformance reports win rates and signal effectiveness over a
// lookback window.
// GET /api/performance?days=30
func (h *PerformanceHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		respondError(w, http.StatusServiceUnavailable, "Performance tracking not enabled")
		return
	}

	ctx := r.Context()
	days := defaultLookbackDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		days = parsed
	}

	stats, err := h.tracker.PerformanceStats(ctx, days)
	if err != nil {
		h.logger.WithError(err).Error("Performance query failed")
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Performance query failed: %v", err))
		return
	}

	effectiveness, err := h.tracker.SignalEffectiveness(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Signal effectiveness unavailable")
	}
	recent, err := h.tracker.RecentScans(ctx, recentScanLimit)
	if err != nil {
		h.logger.WithError(err).Warn("Recent scans unavailable")
	}

	respondJSON(w, http.StatusOK, PerformanceResponse{
		PeriodDays:          days,
		OverallPerformance:  stats,
		SignalEffectiveness: effectiveness,
		RecentScans:         recent,
		Timestamp:           time.Now(),
	})
}
