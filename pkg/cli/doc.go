// Package cli provides common utilities for the adforge command-line tool.
//
// This package includes:
//   - Output formatting (JSON, YAML, raw) with optional jq-style filtering
//   - Request file loading (YAML/JSON)
//   - Pipeline progress rendering for the terminal
//   - Standard directory layout under ~/.adforge/
//
// Example usage:
//
//	// Output a result
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
//
//	// Narrow it first with a jq expression
//	slim, err := cli.ApplyFilter(result, ".strategy.keywords")
package cli
