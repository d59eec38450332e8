package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/flashpoint/internal/contracts"
	"github.com/wonny/flashpoint/internal/universe"
	"github.com/wonny/flashpoint/pkg/logger"
)

// UniverseHandler manages the scanned symbol set.
type UniverseHandler struct {
	store  contracts.UniverseStore
	logger *logger.Logger
}

// NewUniverseHandler creates the universe handler.
func NewUniverseHandler(store contracts.UniverseStore, log *logger.Logger) *UniverseHandler {
	return &UniverseHandler{store: store, logger: log}
}

// UniverseResponse lists the active universe.
type UniverseResponse struct {
	UniverseSize int      `json:"universe_size"`
	Symbols      []string `json:"symbols"`
}

// UniverseMutation reports a single add or remove.
type UniverseMutation struct {
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

// GetUniverse returns the active symbols.
// GET /api/universe
func (h *UniverseHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.store.ActiveSymbols(r.Context())
	if err != nil {
		h.respondStoreError(w, err, "Failed to list universe")
		return
	}
	if symbols == nil {
		symbols = []string{}
	}

	respondJSON(w, http.StatusOK, UniverseResponse{
		UniverseSize: len(symbols),
		Symbols:      symbols,
	})
}

// AddSymbol adds one symbol to the universe.
// POST /api/universe/{symbol}
func (h *UniverseHandler) AddSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	if err := h.store.Add(r.Context(), symbol); err != nil {
		h.respondStoreError(w, err, fmt.Sprintf("Failed to add %s", symbol))
		return
	}

	respondJSON(w, http.StatusOK, UniverseMutation{
		Symbol:  symbol,
		Message: fmt.Sprintf("Added %s to universe", symbol),
	})
}

// RemoveSymbol deletes one symbol from the universe. Removing a symbol
// that is not present succeeds.
// DELETE /api/universe/{symbol}
func (h *UniverseHandler) RemoveSymbol(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["symbol"]))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	if err := h.store.Remove(r.Context(), symbol); err != nil {
		h.respondStoreError(w, err, fmt.Sprintf("Failed to remove %s", symbol))
		return
	}

	respondJSON(w, http.StatusOK, UniverseMutation{
		Symbol:  symbol,
		Message: fmt.Sprintf("Removed %s from universe", symbol),
	})
}

// respondStoreError maps store failures: an unreachable store is 503,
// anything else 500.
func (h *UniverseHandler) respondStoreError(w http.ResponseWriter, err error, message string) {
	h.logger.WithError(err).Error(message)

	status := http.StatusInternalServerError
	if errors.Is(err, universe.ErrUnavailable) {
		status = http.StatusServiceUnavailable
	}
	respondError(w, status, message)
}
