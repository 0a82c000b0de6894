package journal

import (
	"sort"
	"time"
)

// RMultipleRecord is one trade's outcome normalized against its risk
// unit, plus the cumulative-R curve and drawdown at that point.
type RMultipleRecord struct {
	TradeID     string
	Pair        string
	Direction   Direction
	EntryPrice  float64
	ExitPrice   float64
	Size        float64
	RMultiple   float64
	CumulativeR float64
	DrawdownR   float64
	Duration    time.Duration
	Reason      string
}

// Export maps closed trades to R-multiple records. Input order does not
// matter: records are sorted by close time ascending, ties broken by
// trade id, so the output is deterministic for a given trade set.
func Export(trades []TradeRecord) []RMultipleRecord {
	sorted := make([]TradeRecord, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CloseTime.Equal(sorted[j].CloseTime) {
			return sorted[i].CloseTime.Before(sorted[j].CloseTime)
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})

	out := make([]RMultipleRecord, 0, len(sorted))
	cum, peak := 0.0, 0.0
	for _, t := range sorted {
		r := t.RMultiple()
		cum += r
		if cum > peak {
			peak = cum
		}
		out = append(out, RMultipleRecord{
			TradeID:     t.TradeID,
			Pair:        t.Pair,
			Direction:   t.Direction,
			EntryPrice:  t.EntryPrice,
			ExitPrice:   t.ExitPrice,
			Size:        t.Size,
			RMultiple:   r,
			CumulativeR: cum,
			DrawdownR:   cum - peak,
			Duration:    t.Duration(),
			Reason:      t.Reason,
		})
	}
	return out
}

// RMultiples extracts just the R-multiple sequence, in export order.
func RMultiples(records []RMultipleRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.RMultiple
	}
	return out
}
