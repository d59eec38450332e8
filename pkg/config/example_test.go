package config_test

import (
	"fmt"

	"github.com/wonny/flashpoint/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("API port: %s\n", cfg.API.Port)
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Data provider: %s\n", cfg.Data.Provider)
	fmt.Printf("Minimum score: %.0f\n", cfg.Scanner.MinScore)
}
