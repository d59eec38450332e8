package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/flashpoint/internal/api/handlers"
	"github.com/wonny/flashpoint/internal/api/ws"
	"github.com/wonny/flashpoint/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	scanHandler *handlers.ScanHandler,
	performance *handlers.PerformanceHandler,
	universe *handlers.UniverseHandler,
	market *handlers.MarketDataHandler,
	execution *handlers.ExecutionHandler,
	hub *ws.Hub,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Service banner and health
	r.HandleFunc("/", rootHandler).Methods("GET")
	r.HandleFunc("/health", scanHandler.Health).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Scan endpoints
	api.HandleFunc("/scan", scanHandler.RunScan).Methods("POST")
	api.HandleFunc("/quick/{symbols}", scanHandler.GetQuickAnalysis).Methods("GET")
	api.HandleFunc("/benchmark", scanHandler.GetBenchmark).Methods("GET")
	api.HandleFunc("/stats", scanHandler.GetStats).Methods("GET")

	// Analytics
	api.HandleFunc("/performance", performance.GetPerformance).Methods("GET")

	// Universe management
	api.HandleFunc("/universe", universe.GetUniverse).Methods("GET")
	api.HandleFunc("/universe/{symbol}", universe.AddSymbol).Methods("POST")
	api.HandleFunc("/universe/{symbol}", universe.RemoveSymbol).Methods("DELETE")

	// Data and execution
	api.HandleFunc("/market-data/{symbol}", market.GetMarketData).Methods("GET")
	api.HandleFunc("/execute", execution.Execute).Methods("POST")

	// Websocket feed of completed scans
	r.HandleFunc("/ws/scans", hub.HandleConnection)

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// rootHandler returns the service banner
func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"service":   "Flashpoint Scanner API",
		"status":    "operational",
		"version":   handlers.APIVersion,
		"timestamp": time.Now(),
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
