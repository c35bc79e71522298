// Package main is the entry point for the adforge CLI.
//
// Usage:
//
//	adforge [flags] <command> [subcommand] [args]
//
// Commands:
//
//	config       - Configuration management (contexts, services)
//	run          - Run the marketing campaign pipeline for a topic
//	checkpoints  - Inspect saved pipeline checkpoints
//	version      - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/brightwell/adforge/cmd/adforge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
