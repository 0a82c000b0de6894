package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quantdev/donchian/journal"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the trade journal as normalized R-multiples",
	Long: `Export reads closed trades from a SQLite journal, converts each to an
R-multiple against the risk unit captured at trade open, and writes a
deterministic CSV (sorted by close time, ties by trade id) plus a
summary block.

Example:
  donchian export --db trades.sqlite --out rmultiples.csv`,
	RunE: runExport,
}

var (
	exportDBPath   string
	exportOutPath  string
	exportRiskUnit float64
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportDBPath, "db", "d", "", "path to SQLite journal DB (required)")
	exportCmd.Flags().StringVarP(&exportOutPath, "out", "o", "rmultiples.csv", "output CSV path")
	exportCmd.Flags().Float64Var(&exportRiskUnit, "risk-unit", 5.0, "risk unit in account currency, for the summary")

	exportCmd.MarkFlagRequired("db")
}

func runExport(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(exportDBPath)
	if err != nil {
		return err
	}
	defer j.Close()

	trades, err := j.ListTrades()
	if err != nil {
		return err
	}

	records := journal.Export(trades)
	if err := journal.WriteExportCSV(exportOutPath, records); err != nil {
		return err
	}

	journal.WriteSummary(os.Stdout, journal.Summarize(records), exportRiskUnit)
	return nil
}
