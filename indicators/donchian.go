package indicators

import (
	"fmt"

	"github.com/quantdev/donchian/market"
)

// Channel is a streaming Donchian channel: the rolling max(high) and
// min(low) over a lookback window.
//
// Entry channels exclude the current bar, so a breakout must clear the
// prior range. The exit mid-line includes the current bar. Both
// variants only ever consult bars at or before the current one.
type Channel struct {
	period         int
	includeCurrent bool
	highs          []float64
	lows           []float64
	upper          float64
	lower          float64
	seen           int
}

// NewEntryChannel creates a channel whose window excludes the current
// bar (breakout detection).
func NewEntryChannel(period int) *Channel {
	return newChannel(period, false)
}

// NewExitChannel creates a channel whose window includes the current
// bar (mid-line exits).
func NewExitChannel(period int) *Channel {
	return newChannel(period, true)
}

func newChannel(period int, includeCurrent bool) *Channel {
	return &Channel{
		period:         period,
		includeCurrent: includeCurrent,
		highs:          make([]float64, 0, period+1),
		lows:           make([]float64, 0, period+1),
	}
}

func (d *Channel) Name() string {
	return fmt.Sprintf("Donchian(%d)", d.period)
}

func (d *Channel) Warmup() int {
	if d.includeCurrent {
		return d.period
	}
	// The window is the `period` bars before the current one.
	return d.period + 1
}

func (d *Channel) Reset() {
	d.highs = d.highs[:0]
	d.lows = d.lows[:0]
	d.upper = 0
	d.lower = 0
	d.seen = 0
}

func (d *Channel) Update(c market.Candle) {
	d.seen++

	d.highs = append(d.highs, c.High)
	d.lows = append(d.lows, c.Low)
	if len(d.highs) > d.period+1 {
		d.highs = d.highs[1:]
		d.lows = d.lows[1:]
	}

	if !d.Ready() {
		return
	}

	// Window bounds: the last `period` entries, dropping the current bar
	// for exclusive (entry) channels.
	hi, lo := d.highs, d.lows
	if !d.includeCurrent {
		hi = hi[:len(hi)-1]
		lo = lo[:len(lo)-1]
	}
	if len(hi) > d.period {
		hi = hi[len(hi)-d.period:]
		lo = lo[len(lo)-d.period:]
	}

	d.upper = hi[0]
	d.lower = lo[0]
	for i := 1; i < len(hi); i++ {
		if hi[i] > d.upper {
			d.upper = hi[i]
		}
		if lo[i] < d.lower {
			d.lower = lo[i]
		}
	}
}

func (d *Channel) Ready() bool {
	return d.seen >= d.Warmup()
}

// Upper returns the rolling window high.
func (d *Channel) Upper() float64 {
	if !d.Ready() {
		return 0
	}
	return d.upper
}

// Lower returns the rolling window low.
func (d *Channel) Lower() float64 {
	if !d.Ready() {
		return 0
	}
	return d.lower
}

// Mid returns (upper + lower) / 2.
func (d *Channel) Mid() float64 {
	if !d.Ready() {
		return 0
	}
	return (d.upper + d.lower) / 2
}
