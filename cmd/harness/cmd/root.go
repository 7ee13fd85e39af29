package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "harness",
	Short: "A rule-enforcing daily backtesting harness",
	Long: `Harness is a daily-bar backtesting harness written in Go.

It provides tools for:
  - Running strategies against aligned multi-instrument daily datasets
  - Enforcing execution rules: gap slippage, batch overspend rejection,
    forced end-of-run liquidation and bankruptcy halts
  - Journaling fills and equity curves to SQLite or CSV
  - Reporting performance statistics for finished runs`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
