package journal

import (
	"fmt"
	"io"
)

// Summary aggregates a trade log in R terms.
type Summary struct {
	Trades       int
	Wins         int
	Losses       int
	WinRate      float64
	Expectancy   float64 // mean R per trade
	TotalR       float64
	MaxDrawdownR float64 // positive magnitude
	BestR        float64
	WorstR       float64
}

// Summarize computes summary statistics over R-multiple records.
func Summarize(records []RMultipleRecord) Summary {
	s := Summary{Trades: len(records)}
	if len(records) == 0 {
		return s
	}

	rs := RMultiples(records)
	s.BestR, s.WorstR = rs[0], rs[0]
	for _, r := range rs {
		s.TotalR += r
		if r > 0 {
			s.Wins++
		} else if r < 0 {
			s.Losses++
		}
		if r > s.BestR {
			s.BestR = r
		}
		if r < s.WorstR {
			s.WorstR = r
		}
	}
	s.WinRate = float64(s.Wins) / float64(s.Trades)
	s.Expectancy = s.TotalR / float64(s.Trades)
	s.MaxDrawdownR = MaxDrawdownR(rs)
	return s
}

// MaxDrawdownR returns the largest peak-to-trough decline of the
// cumulative R curve, as a positive magnitude. Single O(n) pass with a
// running peak; never looks ahead.
func MaxDrawdownR(rs []float64) float64 {
	cum, peak, maxDD := 0.0, 0.0, 0.0
	for _, r := range rs {
		cum += r
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// WriteSummary prints the summary block in the export report format.
func WriteSummary(w io.Writer, s Summary, riskUnit float64) {
	fmt.Fprintf(w, "Trade Summary (Risk Unit: %.2f USD)\n", riskUnit)
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Total trades:   %d\n", s.Trades)
	fmt.Fprintf(w, "Winning trades: %d\n", s.Wins)
	fmt.Fprintf(w, "Losing trades:  %d\n", s.Losses)
	fmt.Fprintf(w, "Win rate:       %.2f%%\n", s.WinRate*100)
	fmt.Fprintf(w, "Total return:   %.2fR (%.2f USD)\n", s.TotalR, s.TotalR*riskUnit)
	fmt.Fprintf(w, "Expectancy:     %.2fR\n", s.Expectancy)
	fmt.Fprintf(w, "Max drawdown:   %.2fR (%.2f USD)\n", s.MaxDrawdownR, s.MaxDrawdownR*riskUnit)
	fmt.Fprintf(w, "Best trade:     %.2fR\n", s.BestR)
	fmt.Fprintf(w, "Worst trade:    %.2fR\n", s.WorstR)
}
