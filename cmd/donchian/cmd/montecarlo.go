package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quantdev/donchian/journal"
	"github.com/quantdev/donchian/montecarlo"
)

var montecarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Bootstrap the R-multiple history into outcome distributions",
	Long: `Montecarlo resamples the journaled trade outcomes with replacement and
reports the distribution of final return and maximum drawdown, the
probability of profit, and tail risk (VaR, expected shortfall).

The analysis assumes trade outcomes are independent; any serial
correlation in the real sequence is destroyed by design.

Example:
  donchian montecarlo --db trades.sqlite --sims 5000 --seed 42`,
	RunE: runMontecarlo,
}

var (
	mcDBPath     string
	mcSims       int
	mcTrades     int
	mcSeed       int64
	mcWorkers    int
	mcConfidence float64
	mcThresholds []float64
)

func init() {
	rootCmd.AddCommand(montecarloCmd)

	montecarloCmd.Flags().StringVarP(&mcDBPath, "db", "d", "", "path to SQLite journal DB (required)")
	montecarloCmd.Flags().IntVar(&mcSims, "sims", 5000, "number of simulations")
	montecarloCmd.Flags().IntVar(&mcTrades, "trades", 0, "trades per simulation (0 = journal length)")
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "RNG seed (0 = from clock)")
	montecarloCmd.Flags().IntVar(&mcWorkers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	montecarloCmd.Flags().Float64Var(&mcConfidence, "confidence", 0.95, "confidence level for VaR")
	montecarloCmd.Flags().Float64SliceVar(&mcThresholds, "thresholds", []float64{3, 5, 10}, "drawdown thresholds in R")

	montecarloCmd.MarkFlagRequired("db")
}

func runMontecarlo(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(mcDBPath)
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := j.ListTrades()
	if err != nil {
		return err
	}

	rs := journal.RMultiples(journal.Export(trades))
	res, err := montecarlo.Run(cmd.Context(), rs, montecarlo.Config{
		Simulations:  mcSims,
		TradesPerSim: mcTrades,
		Thresholds:   mcThresholds,
		Confidence:   mcConfidence,
		Seed:         mcSeed,
		Workers:      mcWorkers,
	})
	if err != nil {
		return err
	}

	return montecarlo.WriteReport(os.Stdout, res)
}
