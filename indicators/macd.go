package indicators

import (
	"fmt"

	"github.com/quantdev/donchian/market"
)

// MACD is a streaming Moving Average Convergence Divergence indicator.
// Value() returns the histogram (MACD line minus signal line), an
// unbounded trend-difference oscillator.
type MACD struct {
	fast   *ExponentialMA
	slow   *ExponentialMA
	signal ewma
	hist   float64
}

// NewMACD creates a MACD indicator with the given fast/slow/signal periods.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: newEWMA(signal),
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fast.period, m.slow.period, m.signal.period)
}

func (m *MACD) Warmup() int {
	// The signal line gets its first input on the bar the slow EMA
	// becomes ready, so that bar counts toward both.
	return m.slow.period + m.signal.period - 1
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.reset()
	m.hist = 0
}

func (m *MACD) Update(c market.Candle) {
	m.fast.Update(c)
	m.slow.Update(c)
	if !m.slow.Ready() {
		return
	}
	line := m.fast.Value() - m.slow.Value()
	m.signal.push(line)
	if m.signal.ready() {
		m.hist = line - m.signal.value
	}
}

func (m *MACD) Ready() bool {
	return m.slow.Ready() && m.signal.ready()
}

func (m *MACD) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.hist
}

// ewma smooths a plain float series, seeded with the SMA of the first
// `period` values. Used for the MACD signal line.
type ewma struct {
	period     int
	multiplier float64
	value      float64
	count      int
	warmupSum  float64
}

func newEWMA(period int) ewma {
	return ewma{period: period, multiplier: 2.0 / float64(period+1)}
}

func (e *ewma) reset() {
	e.value = 0
	e.count = 0
	e.warmupSum = 0
}

func (e *ewma) push(v float64) {
	if e.count < e.period {
		e.warmupSum += v
		e.count++
		if e.count == e.period {
			e.value = e.warmupSum / float64(e.period)
		}
		return
	}
	e.value = (v-e.value)*e.multiplier + e.value
}

func (e *ewma) ready() bool {
	return e.count >= e.period
}
