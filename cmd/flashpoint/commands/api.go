package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/flashpoint/internal/api"
	"github.com/wonny/flashpoint/internal/api/handlers"
	"github.com/wonny/flashpoint/internal/api/ws"
	"github.com/wonny/flashpoint/internal/broker"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the HTTP API and the scan websocket feed.

This command:
- serves scan, universe and performance endpoints
- broadcasts every completed scan over /ws/scans
- exposes paper trading through /api/execute

Example:
  go run ./cmd/flashpoint api
  go run ./cmd/flashpoint api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from API_PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Flashpoint API Server ===")

	deps, err := initScanner()
	if err != nil {
		return err
	}
	defer deps.Close()

	if apiPort != "" {
		deps.cfg.API.Port = apiPort
	}

	deps.log.WithFields(map[string]interface{}{
		"port": deps.cfg.API.Port,
		"env":  deps.cfg.Env,
	}).Info("Initializing API server")

	// Websocket hub for the scan feed
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	hub := ws.NewHub(deps.log)
	go hub.Run(hubCtx)

	// Handlers
	scanHandler := handlers.NewScanHandler(deps.scanner, deps.benchmark, hub, *deps.cfg, deps.log)
	var tracker handlers.Tracker
	if deps.tracker != nil {
		tracker = deps.tracker
	}
	performanceHandler := handlers.NewPerformanceHandler(tracker, deps.log)
	universeHandler := handlers.NewUniverseHandler(deps.store, deps.log)
	marketHandler := handlers.NewMarketDataHandler(deps.feed, deps.log)
	executionHandler := handlers.NewExecutionHandler(broker.NewDefaultManager(deps.feed, deps.log), deps.log)

	// Router and server
	router := api.NewRouter(scanHandler, performanceHandler, universeHandler, marketHandler, executionHandler, hub, deps.log)
	server := api.New(deps.cfg, deps.log, router)

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			deps.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", deps.cfg.API.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/scan")
	fmt.Println("  GET  /api/quick/{symbols}")
	fmt.Println("  GET  /api/benchmark")
	fmt.Println("  GET  /api/stats")
	fmt.Println("  GET  /api/performance")
	fmt.Println("  GET  /api/universe")
	fmt.Println("  GET  /api/market-data/{symbol}")
	fmt.Println("  POST /api/execute")
	fmt.Println("  WS   /ws/scans")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	deps.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	deps.log.Info("Server stopped")
	return nil
}
