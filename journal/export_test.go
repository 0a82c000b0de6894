package journal

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkTrade(id string, closeOffset time.Duration, r float64) TradeRecord {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	// RiskUnit 5 with size 1: exit-entry = r*5.
	return TradeRecord{
		TradeID:    id,
		Pair:       "BTC/USDT",
		Direction:  Long,
		EntryPrice: 100,
		ExitPrice:  100 + r*5,
		Size:       1,
		RiskUnit:   5,
		OpenTime:   base.Add(closeOffset - time.Hour),
		CloseTime:  base.Add(closeOffset),
		Reason:     ExitChannel,
	}
}

func TestExportOrderingAndRMultiples(t *testing.T) {
	t.Parallel()

	// Deliberately unordered input, with a close-time tie.
	trades := []TradeRecord{
		mkTrade("03", 3*time.Hour, -1),
		mkTrade("01", 1*time.Hour, 2),
		mkTrade("02b", 2*time.Hour, 3),
		mkTrade("02a", 2*time.Hour, -1),
	}

	recs := Export(trades)
	require.Len(t, recs, 4)

	assert.Equal(t, []string{"01", "02a", "02b", "03"}, []string{
		recs[0].TradeID, recs[1].TradeID, recs[2].TradeID, recs[3].TradeID,
	})

	assert.InDelta(t, 2.0, recs[0].RMultiple, 1e-9)
	assert.InDelta(t, -1.0, recs[1].RMultiple, 1e-9)
	assert.InDelta(t, 2.0, recs[0].CumulativeR, 1e-9)
	assert.InDelta(t, 1.0, recs[1].CumulativeR, 1e-9)
	assert.InDelta(t, -1.0, recs[1].DrawdownR, 1e-9)
	assert.InDelta(t, 0.0, recs[2].DrawdownR, 1e-9) // new peak at 4R
}

func TestExportUsesRiskUnitAtOpen(t *testing.T) {
	t.Parallel()

	tr := mkTrade("01", time.Hour, 2)
	tr.RiskUnit = 10 // R captured at open differs from the run config
	recs := Export([]TradeRecord{tr})
	require.Len(t, recs, 1)
	assert.InDelta(t, 1.0, recs[0].RMultiple, 1e-9) // PnL 10 / R 10
}

func TestSummarizeKnownSequence(t *testing.T) {
	t.Parallel()

	// R-multiples [+2, -1, -1, +3, -1, +1]: expectancy +0.5R, the -1,-1
	// run from the +2 peak gives a 2R max drawdown.
	rs := []float64{2, -1, -1, 3, -1, 1}
	trades := make([]TradeRecord, len(rs))
	for i, r := range rs {
		trades[i] = mkTrade(string(rune('a'+i)), time.Duration(i)*time.Hour, r)
	}

	s := Summarize(Export(trades))
	assert.Equal(t, 6, s.Trades)
	assert.Equal(t, 3, s.Wins)
	assert.Equal(t, 3, s.Losses)
	assert.InDelta(t, 0.5, s.WinRate, 1e-9)
	assert.InDelta(t, 0.5, s.Expectancy, 1e-9)
	assert.InDelta(t, 3.0, s.TotalR, 1e-9)
	assert.InDelta(t, 2.0, s.MaxDrawdownR, 1e-9)
	assert.InDelta(t, 3.0, s.BestR, 1e-9)
	assert.InDelta(t, -1.0, s.WorstR, 1e-9)
}

// bruteForceMaxDD is the O(n^2) peak-to-trough scan used as an oracle.
func bruteForceMaxDD(rs []float64) float64 {
	cum := make([]float64, len(rs)+1)
	for i, r := range rs {
		cum[i+1] = cum[i] + r
	}
	maxDD := 0.0
	for i := 0; i < len(cum); i++ {
		for j := i + 1; j < len(cum); j++ {
			if dd := cum[i] - cum[j]; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func TestMaxDrawdownMatchesBruteForce(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 2, 3, 10, 100, 1000} {
		rs := make([]float64, n)
		for i := range rs {
			rs[i] = rng.NormFloat64()
		}
		assert.InDelta(t, bruteForceMaxDD(rs), MaxDrawdownR(rs), 1e-9, "n=%d", n)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	assert.Equal(t, 0, s.Trades)
	assert.Equal(t, 0.0, s.Expectancy)
}
