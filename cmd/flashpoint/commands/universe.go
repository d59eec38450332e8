package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/flashpoint/internal/universe"
	"github.com/wonny/flashpoint/pkg/config"
	"github.com/wonny/flashpoint/pkg/redis"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Manage the symbol universe",
	Long: `Shows and edits the active symbol set.

Subcommands:
  list    - list current symbols
  add     - add a symbol
  remove  - remove a symbol
  load    - load symbols from a CSV file

Example:
  go run ./cmd/flashpoint universe list
  go run ./cmd/flashpoint universe add GME
  go run ./cmd/flashpoint universe load symbols.csv`,
	RunE: runUniverseSummary,
}

var (
	universeListCmd = &cobra.Command{
		Use:   "list",
		Short: "List current symbols",
		RunE:  runUniverseList,
	}

	universeAddCmd = &cobra.Command{
		Use:   "add SYMBOL",
		Short: "Add a symbol to the universe",
		Args:  cobra.ExactArgs(1),
		RunE:  runUniverseAdd,
	}

	universeRemoveCmd = &cobra.Command{
		Use:   "remove SYMBOL",
		Short: "Remove a symbol from the universe",
		Args:  cobra.ExactArgs(1),
		RunE:  runUniverseRemove,
	}

	universeLoadCmd = &cobra.Command{
		Use:   "load FILE",
		Short: "Load symbols from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE:  runUniverseLoad,
	}
)

func init() {
	rootCmd.AddCommand(universeCmd)
	universeCmd.AddCommand(universeListCmd)
	universeCmd.AddCommand(universeAddCmd)
	universeCmd.AddCommand(universeRemoveCmd)
	universeCmd.AddCommand(universeLoadCmd)
}

// initUniverse wires just the symbol store; universe edits should not
// drag in the data feed or the tracking database.
func initUniverse() (*universe.Store, *redis.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	return universe.NewStore(redisClient), redisClient, nil
}

func runUniverseSummary(cmd *cobra.Command, args []string) error {
	store, redisClient, err := initUniverse()
	if err != nil {
		return err
	}
	defer redisClient.Close()

	size, err := store.Size(context.Background())
	if err != nil {
		return fmt.Errorf("universe size: %w", err)
	}

	fmt.Printf("🌌 Universe contains %d symbols\n", size)
	PrintInfo("Use 'universe list' to see all symbols")
	return nil
}

func runUniverseList(cmd *cobra.Command, args []string) error {
	store, redisClient, err := initUniverse()
	if err != nil {
		return err
	}
	defer redisClient.Close()

	symbols, err := store.ActiveSymbols(context.Background())
	if err != nil {
		return fmt.Errorf("list universe: %w", err)
	}

	fmt.Printf("🌌 Current universe (%d symbols):\n", len(symbols))
	for i, symbol := range symbols {
		fmt.Printf("  %3d. %s\n", i+1, symbol)
	}
	return nil
}

func runUniverseAdd(cmd *cobra.Command, args []string) error {
	store, redisClient, err := initUniverse()
	if err != nil {
		return err
	}
	defer redisClient.Close()

	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	if err := store.Add(context.Background(), symbol); err != nil {
		return fmt.Errorf("add symbol: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Added %s to universe", symbol))
	return nil
}

func runUniverseRemove(cmd *cobra.Command, args []string) error {
	store, redisClient, err := initUniverse()
	if err != nil {
		return err
	}
	defer redisClient.Close()

	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	if err := store.Remove(context.Background(), symbol); err != nil {
		return fmt.Errorf("remove symbol: %w", err)
	}

	fmt.Printf("🗑️  Removed %s from universe\n", symbol)
	return nil
}

func runUniverseLoad(cmd *cobra.Command, args []string) error {
	store, redisClient, err := initUniverse()
	if err != nil {
		return err
	}
	defer redisClient.Close()

	count, err := store.LoadFile(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("load symbols: %w", err)
	}

	fmt.Printf("📂 Loaded %d symbols from %s\n", count, args[0])
	return nil
}
