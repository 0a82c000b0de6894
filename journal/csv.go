package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var tradeHeader = []string{
	"trade_id", "pair", "direction", "entry_price", "exit_price", "size",
	"risk_unit", "open_time", "close_time", "exit_reason",
}

var exportHeader = []string{
	"trade_id", "pair", "direction", "entry_price", "exit_price", "size",
	"r_multiple", "cumulative_r", "drawdown_r", "duration_hours", "exit_reason",
}

// CSVJournal appends closed trades to a CSV file as they happen.
type CSVJournal struct {
	trades *csv.Writer
	tf     *os.File
}

// NewCSV creates the trades file and writes the header.
func NewCSV(tradesPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}

	tw := csv.NewWriter(tf)
	if err := tw.Write(tradeHeader); err != nil {
		tf.Close()
		return nil, err
	}
	tw.Flush()
	if err := tw.Error(); err != nil {
		tf.Close()
		return nil, err
	}

	return &CSVJournal{trades: tw, tf: tf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Pair,
		t.Direction.String(),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.Size),
		f(t.RiskUnit),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	return j.tf.Close()
}

// WriteExportCSV writes the normalized R-multiple records to path.
// Output is deterministic given the same records.
func WriteExportCSV(path string, records []RMultipleRecord) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range records {
		err := w.Write([]string{
			r.TradeID,
			r.Pair,
			r.Direction.String(),
			f(r.EntryPrice),
			f(r.ExitPrice),
			f(r.Size),
			f(r.RMultiple),
			f(r.CumulativeR),
			f(r.DrawdownR),
			f(r.Duration.Hours()),
			r.Reason,
		})
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
