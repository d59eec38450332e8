package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wonny/flashpoint/internal/broker"
	"github.com/wonny/flashpoint/pkg/logger"
)

// OrderPlacer routes orders to a named broker.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order broker.Order, name string) (*broker.OrderReceipt, error)
}

// ExecutionHandler places orders through the broker registry.
type ExecutionHandler struct {
	brokers OrderPlacer
	logger  *logger.Logger
}

// NewExecutionHandler creates the execution handler.
func NewExecutionHandler(brokers OrderPlacer, log *logger.Logger) *ExecutionHandler {
	return &ExecutionHandler{brokers: brokers, logger: log}
}

// ExecuteRequest is an order plus the broker to route it to. An empty
// broker means the default paper broker.
type ExecuteRequest struct {
	broker.Order
	Broker string `json:"broker,omitempty"`
}

// ExecuteResponse wraps the broker receipt.
type ExecuteResponse struct {
	Broker  string               `json:"broker"`
	Receipt *broker.OrderReceipt `json:"receipt"`
}

// Execute places an order. A rejected order still returns 200 with its
// receipt; 400 means the order never reached a broker.
// POST /api/execute
func (h *ExecutionHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" || req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "Order requires a symbol and positive quantity")
		return
	}
	if req.Side != broker.SideBuy && req.Side != broker.SideSell {
		respondError(w, http.StatusBadRequest, "Order side must be buy or sell")
		return
	}
	if req.Type == "" {
		req.Type = broker.TypeMarket
	}
	name := req.Broker
	if name == "" {
		name = broker.DefaultName
	}

	receipt, err := h.brokers.PlaceOrder(r.Context(), req.Order, name)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", req.Symbol).Error("Order placement failed")
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Order failed: %v", err))
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"symbol": req.Symbol,
		"side":   req.Side,
		"status": receipt.Status,
		"broker": name,
	}).Info("Order placed")

	respondJSON(w, http.StatusOK, ExecuteResponse{Broker: name, Receipt: receipt})
}
