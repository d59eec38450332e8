package main

import (
	"os"

	"github.com/wonny/flashpoint/cmd/flashpoint/commands"
)

// main is the entry point for the Flashpoint CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
