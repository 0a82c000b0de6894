package montecarlo

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSeedIsBitIdentical(t *testing.T) {
	t.Parallel()

	input := []float64{2, -1, -1, 3, -1, 0.5}
	cfg := Config{Simulations: 500, Thresholds: []float64{3, 5}, Confidence: 0.95, Seed: 42}

	a, err := Run(context.Background(), input, cfg)
	require.NoError(t, err)

	// A different worker count must not change the outcome either.
	cfg.Workers = 7
	b, err := Run(context.Background(), input, cfg)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDifferentSeedsDiffer(t *testing.T) {
	t.Parallel()

	input := []float64{2, -1, -1, 3, -1, 0.5}
	cfg := Config{Simulations: 500, Confidence: 0.95, Seed: 1}
	a, err := Run(context.Background(), input, cfg)
	require.NoError(t, err)

	cfg.Seed = 2
	b, err := Run(context.Background(), input, cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.FinalR.Pct, b.FinalR.Pct)
}

func TestSingleOutcomeIsDegenerate(t *testing.T) {
	t.Parallel()

	res, err := Run(context.Background(), []float64{1}, Config{
		Simulations:  100,
		TradesPerSim: 10,
		Thresholds:   []float64{1},
		Confidence:   0.95,
		Seed:         7,
	})
	require.NoError(t, err)

	// Every curve is ten straight wins.
	assert.Equal(t, 10.0, res.FinalR.Mean)
	assert.Equal(t, 10.0, res.FinalR.Pct[1])
	assert.Equal(t, 10.0, res.FinalR.Pct[99])
	assert.Equal(t, 0.0, res.MaxDrawdownR.Mean)
	assert.Equal(t, 1.0, res.ProbProfit)
	assert.Equal(t, 0.0, res.ProbDrawdownOver[1])
	assert.Equal(t, -10.0, res.VaR)
}

func TestAllLosses(t *testing.T) {
	t.Parallel()

	res, err := Run(context.Background(), []float64{-1}, Config{
		Simulations:  100,
		TradesPerSim: 5,
		Thresholds:   []float64{3, 10},
		Confidence:   0.95,
		Seed:         7,
	})
	require.NoError(t, err)

	assert.Equal(t, -5.0, res.FinalR.Mean)
	assert.Equal(t, 5.0, res.MaxDrawdownR.Mean)
	assert.Equal(t, 0.0, res.ProbProfit)
	assert.Equal(t, 1.0, res.ProbDrawdownOver[3])
	assert.Equal(t, 0.0, res.ProbDrawdownOver[10])
	assert.Equal(t, 5.0, res.VaR)
	assert.Equal(t, 5.0, res.ExpectedShortfall)
}

func TestMeanConverges(t *testing.T) {
	t.Parallel()

	// E[r] = 0.5 per trade, 100 trades per curve: E[final] = 50.
	res, err := Run(context.Background(), []float64{2, -1}, Config{
		Simulations:  2000,
		TradesPerSim: 100,
		Confidence:   0.95,
		Seed:         42,
	})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, res.FinalR.Mean, 2.0)
	assert.Less(t, res.FinalR.Pct[5], res.FinalR.Pct[95])
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), nil, Config{Simulations: 10, Confidence: 0.95})
	assert.Error(t, err)

	_, err = Run(context.Background(), []float64{1}, Config{Simulations: 0, Confidence: 0.95})
	assert.Error(t, err)

	_, err = Run(context.Background(), []float64{1}, Config{Simulations: 10, Confidence: 1})
	assert.Error(t, err)
}

func TestRunCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, []float64{2, -1}, Config{Simulations: 100000, Confidence: 0.95, Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPercentileInterpolation(t *testing.T) {
	t.Parallel()

	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 1.0, percentile(sorted, 0))
	assert.Equal(t, 3.0, percentile(sorted, 50))
	assert.Equal(t, 5.0, percentile(sorted, 100))
	assert.InDelta(t, 1.2, percentile(sorted, 5), 1e-9)
	assert.True(t, math.IsNaN(percentile(nil, 50)))
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	res, err := Run(context.Background(), []float64{2, -1, 3}, Config{
		Simulations: 200,
		Thresholds:  []float64{3},
		Confidence:  0.95,
		Seed:        9,
	})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, WriteReport(&sb, res))
	out := sb.String()
	assert.Contains(t, out, "200 simulations")
	assert.Contains(t, out, "P(profit)")
	assert.Contains(t, out, "max drawdown R")
	assert.Contains(t, out, "P(drawdown >= 3.0R)")
}
