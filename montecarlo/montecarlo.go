// Package montecarlo estimates the distribution of strategy outcomes by
// bootstrap resampling of realized R-multiples.
//
// Each simulation draws trades independently with replacement from the
// observed history, so the analysis assumes trade outcomes are i.i.d.
// Serial correlation in the real sequence is deliberately destroyed.
package montecarlo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Config parameterizes one bootstrap run.
type Config struct {
	Simulations  int       // number of resampled equity curves
	TradesPerSim int       // trades per curve; 0 means len(input)
	Thresholds   []float64 // drawdown levels (in R) to report probabilities for
	Confidence   float64   // confidence level for VaR, e.g. 0.95
	Seed         int64     // 0 seeds from the clock
	Workers      int       // 0 means GOMAXPROCS
}

// pctLevels are the reported percentile levels.
var pctLevels = []float64{1, 5, 25, 50, 75, 95, 99}

// Distribution summarizes one sampled quantity across simulations.
type Distribution struct {
	Mean float64
	Pct  map[float64]float64 // percentile level -> value
}

// Result is the outcome of a bootstrap run.
type Result struct {
	Simulations  int
	TradesPerSim int
	Seed         int64

	FinalR       Distribution
	MaxDrawdownR Distribution

	ProbProfit        float64
	ProbDrawdownOver  map[float64]float64 // threshold (R) -> probability
	Confidence        float64
	VaR               float64 // loss (in R) not exceeded at the confidence level
	ExpectedShortfall float64 // mean loss beyond the VaR quantile
}

// golden-ratio increment decorrelates per-simulation seeds. This is
// 0x9E3779B97F4A7C15 reinterpreted as a signed 64-bit value.
const seedStep int64 = -0x61C8864680B583EB

// Run executes the bootstrap. The input is the realized R-multiple
// sequence in any order. Cancellation is honored between simulations;
// a cancelled run returns the context error and no partial result.
func Run(ctx context.Context, rmultiples []float64, cfg Config) (*Result, error) {
	if len(rmultiples) == 0 {
		return nil, fmt.Errorf("montecarlo: no trades to resample")
	}
	if cfg.Simulations <= 0 {
		return nil, fmt.Errorf("montecarlo: simulations must be positive, got %d", cfg.Simulations)
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		return nil, fmt.Errorf("montecarlo: confidence must be in (0,1), got %f", cfg.Confidence)
	}

	n := cfg.TradesPerSim
	if n <= 0 {
		n = len(rmultiples)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > cfg.Simulations {
		workers = cfg.Simulations
	}

	finals := make([]float64, cfg.Simulations)
	maxDDs := make([]float64, cfg.Simulations)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(seed + int64(i)*seedStep))
				finals[i], maxDDs[i] = simulate(rng, rmultiples, n)
			}
		}()
	}

feedLoop:
	for i := 0; i < cfg.Simulations; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feedLoop
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Simulations:      cfg.Simulations,
		TradesPerSim:     n,
		Seed:             seed,
		Confidence:       cfg.Confidence,
		FinalR:           summarize(finals),
		MaxDrawdownR:     summarize(maxDDs),
		ProbDrawdownOver: make(map[float64]float64, len(cfg.Thresholds)),
	}

	profitable := 0
	for _, f := range finals {
		if f > 0 {
			profitable++
		}
	}
	res.ProbProfit = float64(profitable) / float64(len(finals))

	for _, th := range cfg.Thresholds {
		over := 0
		for _, dd := range maxDDs {
			if dd >= th {
				over++
			}
		}
		res.ProbDrawdownOver[th] = float64(over) / float64(len(maxDDs))
	}

	sorted := append([]float64(nil), finals...)
	sort.Float64s(sorted)
	cutoff := percentile(sorted, (1-cfg.Confidence)*100)
	res.VaR = -cutoff

	tail, count := 0.0, 0
	for _, f := range sorted {
		if f <= cutoff {
			tail += f
			count++
		}
	}
	if count > 0 {
		res.ExpectedShortfall = -tail / float64(count)
	}

	return res, nil
}

// simulate draws n trades with replacement and tracks the running-peak
// drawdown of the cumulative R curve.
func simulate(rng *rand.Rand, rmultiples []float64, n int) (final, maxDD float64) {
	var sum, peak float64
	for i := 0; i < n; i++ {
		sum += rmultiples[rng.Intn(len(rmultiples))]
		if sum > peak {
			peak = sum
		}
		if dd := peak - sum; dd > maxDD {
			maxDD = dd
		}
	}
	return sum, maxDD
}

func summarize(values []float64) Distribution {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	d := Distribution{
		Mean: sum / float64(len(sorted)),
		Pct:  make(map[float64]float64, len(pctLevels)),
	}
	for _, lvl := range pctLevels {
		d.Pct[lvl] = percentile(sorted, lvl)
	}
	return d
}

// percentile interpolates linearly between order statistics. The input
// must be sorted.
func percentile(sorted []float64, level float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := level / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo, hi = 0, 0
	}
	if hi >= len(sorted) {
		lo, hi = len(sorted)-1, len(sorted)-1
	}
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
