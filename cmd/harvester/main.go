// Package main provides the lien harvester CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Lien record crawler for the GSCCCA portal",
	Long:  "Harvester signs into the GSCCCA portal, runs name searches, captures lien documents as PDFs, and extracts totals, addresses and descriptions from the scans.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
