package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "whalecopy",
	Short: "A risk-free prediction-market whale copy-trading simulator",
	Long: `Whalecopy watches a prediction-market venue for large trades, scores the
wallets behind them, gates each copy decision through a multi-model consensus
check, and executes approved copies against a simulated paper-trading ledger.

It provides tools for:
  - Tracking whale trades from the live venue websocket
  - Replaying scripted trade scenarios from CSV
  - Scoring wallet quality by resolved win rate
  - Multi-model consensus validation of copy candidates
  - Paper-trading execution with full P/L accounting
  - Journaling every trade, signal, and balance snapshot

No real funds are ever touched.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	// API keys and overrides may live in a local .env; absence is fine.
	_ = godotenv.Load()
	return rootCmd.Execute()
}
