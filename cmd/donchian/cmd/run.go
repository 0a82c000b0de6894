package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quantdev/donchian/config"
	"github.com/quantdev/donchian/engine"
	"github.com/quantdev/donchian/journal"
	"github.com/quantdev/donchian/logger"
	"github.com/quantdev/donchian/market"
	"github.com/quantdev/donchian/metrics"
	"github.com/quantdev/donchian/protect"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the breakout strategy over historical candles",
	Long: `Run feeds a candle CSV (time,open,high,low,close,volume) through the
decision engine with paper execution, journals every closed trade, and
prints an R-multiple summary.

Example:
  donchian run --candles data/btcusdt_1h.csv --config donchian.yaml`,
	RunE: runRun,
}

var (
	runConfigPath  string
	runCandlesPath string
	runPair        string
	runExportPath  string
	runMetricsAddr string
	runCloseEnd    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to config file (YAML or JSON)")
	runCmd.Flags().StringVarP(&runCandlesPath, "candles", "f", "", "path to candle CSV (required)")
	runCmd.Flags().StringVarP(&runPair, "pair", "p", "", "override the configured pair")
	runCmd.Flags().StringVar(&runExportPath, "export", "", "also write the R-multiple export CSV here")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	runCmd.Flags().BoolVar(&runCloseEnd, "close-end", true, "force-close an open position at the last candle")

	runCmd.MarkFlagRequired("candles")
}

// teeJournal keeps records in memory for the end-of-run report while
// delegating persistence.
type teeJournal struct {
	inner journal.Journal
	recs  []journal.TradeRecord
}

func (t *teeJournal) RecordTrade(rec journal.TradeRecord) error {
	t.recs = append(t.recs, rec)
	if t.inner != nil {
		return t.inner.RecordTrade(rec)
	}
	return nil
}

func (t *teeJournal) Close() error {
	if t.inner != nil {
		return t.inner.Close()
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if runConfigPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(runConfigPath)
}

// openJournal builds the configured persistence backend. The sqlite
// backend also returns prior trades so guard state can be replayed.
func openJournal(jc config.JournalConfig) (journal.Journal, []journal.TradeRecord, error) {
	switch jc.Type {
	case "csv":
		j, err := journal.NewCSV(jc.TradesFile)
		return j, nil, err
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, nil, err
		}
		prior, err := j.ListTrades()
		if err != nil {
			j.Close()
			return nil, nil, err
		}
		return j, prior, nil
	default:
		return nil, nil, nil
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runPair != "" {
		cfg.Strategy.Pair = runPair
	}

	log, err := logger.NewZap()
	if err != nil {
		return err
	}

	tf, err := cfg.Strategy.TimeframeDuration()
	if err != nil {
		return err
	}

	mgr := protect.NewManager(protect.Config{
		StopCount:          cfg.Protection.StopCount,
		StopWindowBars:     cfg.Protection.StopWindowBars,
		DrawdownFraction:   cfg.Protection.DrawdownFraction,
		DrawdownWindowBars: cfg.Protection.DrawdownWindowBars,
		StartBalance:       cfg.Account.Balance,
		CooldownBars:       cfg.Protection.CooldownBars,
		MaxDailyLossR:      cfg.Protection.MaxDailyLossR,
		DayOffset:          cfg.Protection.DayOffset(),
	}, tf, log)

	persist, prior, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	if len(prior) > 0 {
		mgr.Replay(prior)
		log.Info("guard_state_replayed", logger.Int("trades", len(prior)))
	}

	jnl := &teeJournal{inner: persist}
	defer jnl.Close()

	if runMetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(runMetricsAddr, metrics.Handler()); err != nil {
				log.Error("metrics_server", logger.Err(err))
			}
		}()
	}

	exec := engine.NewPaperExecutor(cfg.Account.Balance)
	eng, err := engine.New(cfg, mgr, exec, jnl, log)
	if err != nil {
		return err
	}

	candles, err := market.LoadCSV(runCandlesPath)
	if err != nil {
		return err
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles in %s", runCandlesPath)
	}

	for _, c := range candles {
		if _, err := eng.OnBar(ctx, c); err != nil {
			return err
		}
	}
	if runCloseEnd {
		last := candles[len(candles)-1]
		if err := eng.CloseAll(ctx, last.Close, last.Time); err != nil {
			return err
		}
	}

	records := journal.Export(jnl.recs)
	if runExportPath != "" {
		if err := journal.WriteExportCSV(runExportPath, records); err != nil {
			return err
		}
	}

	journal.WriteSummary(os.Stdout, journal.Summarize(records), cfg.Risk.RiskUnitUSD)
	fmt.Printf("Final balance:  %.2f %s\n", exec.Balance(), cfg.Account.Currency)
	return nil
}
