// Package main is the entry point for the ralph CLI.
package main

import (
	"fmt"
	"os"

	"go.coldcutz.net/ralph/cmd"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersion(fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date))
	// Errors are printed by the printer package before they reach here
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
