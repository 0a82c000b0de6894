package montecarlo

import (
	"fmt"
	"io"
	"sort"
)

// WriteReport renders a plain-text report of a bootstrap run.
func WriteReport(w io.Writer, r *Result) error {
	fmt.Fprintf(w, "Bootstrap: %d simulations x %d trades (seed %d)\n",
		r.Simulations, r.TradesPerSim, r.Seed)
	fmt.Fprintf(w, "P(profit): %.1f%%\n", r.ProbProfit*100)
	fmt.Fprintf(w, "VaR(%.0f%%): %.2fR  ES: %.2fR\n",
		r.Confidence*100, r.VaR, r.ExpectedShortfall)

	writeDist(w, "final R", r.FinalR)
	writeDist(w, "max drawdown R", r.MaxDrawdownR)

	if len(r.ProbDrawdownOver) > 0 {
		ths := make([]float64, 0, len(r.ProbDrawdownOver))
		for th := range r.ProbDrawdownOver {
			ths = append(ths, th)
		}
		sort.Float64s(ths)
		for _, th := range ths {
			fmt.Fprintf(w, "P(drawdown >= %.1fR): %.1f%%\n", th, r.ProbDrawdownOver[th]*100)
		}
	}
	return nil
}

func writeDist(w io.Writer, name string, d Distribution) {
	fmt.Fprintf(w, "%s: mean %.2f |", name, d.Mean)
	for _, lvl := range pctLevels {
		fmt.Fprintf(w, " p%02.0f %.2f", lvl, d.Pct[lvl])
	}
	fmt.Fprintln(w)
}
