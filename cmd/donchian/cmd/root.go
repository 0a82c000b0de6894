package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "donchian",
	Short: "Breakout decision and risk engine for crypto pairs",
	Long: `Donchian is a breakout trading decision and risk engine.

It provides tools for:
  - Running the breakout strategy over historical candle data
  - Fixed risk-unit position sizing with volatility stops
  - Layered entry protections (stop streaks, drawdown, daily loss lock)
  - Exporting trade journals as normalized R-multiples
  - Monte Carlo bootstrap analysis of strategy outcomes`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
