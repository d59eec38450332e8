package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/pkg/logger"
)

// MarketDataHandler serves raw quote lookups.
type MarketDataHandler struct {
	feed   contracts.MarketDataProvider
	logger *logger.Logger
}

// NewMarketDataHandler creates the market data handler.
func NewMarketDataHandler(feed contracts.MarketDataProvider, log *logger.Logger) *MarketDataHandler {
	return &MarketDataHandler{feed: feed, logger: log}
}

// GetMarketData returns the current snapshot for a symbol.
// GET /api/market-data/{symbol}
func (h *MarketDataHandler) GetMarketData(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))

	snapshot, err := h.feed.FetchSnapshot(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Warn("Market data lookup failed")
		respondError(w, http.StatusNotFound, fmt.Sprintf("No data found for %s", symbol))
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
