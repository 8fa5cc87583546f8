// Package main provides the entry point for the talent tracker CLI and API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tracker_agent",
	Short: "Talent Tracker processing orchestrator",
	Long:  "Talent Tracker moves candidates through configurable hiring stages and runs AI analysis jobs over their attachments, via CLI or REST API.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
