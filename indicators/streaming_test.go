package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quantdev/donchian/market"
)

func barsFromCloses(closes ...float64) []market.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return out
}

func TestSimpleMAStreaming(t *testing.T) {
	t.Parallel()

	candles := barsFromCloses(102, 105, 106, 108, 110)

	t.Run("basic functionality", func(t *testing.T) {
		ma := NewMA(3)
		assert.Equal(t, "MA(3)", ma.Name())
		assert.Equal(t, 3, ma.Warmup())
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())

		ma.Update(candles[0])
		ma.Update(candles[1])
		assert.False(t, ma.Ready())

		ma.Update(candles[2])
		assert.True(t, ma.Ready())
		assert.InDelta(t, (102.0+105.0+106.0)/3.0, ma.Value(), 1e-9)

		ma.Update(candles[3])
		assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Value(), 1e-9)
	})

	t.Run("reset", func(t *testing.T) {
		ma := NewMA(2)
		ma.Update(candles[0])
		ma.Update(candles[1])
		assert.True(t, ma.Ready())

		ma.Reset()
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())
	})
}

func TestExponentialMAStreaming(t *testing.T) {
	t.Parallel()

	candles := barsFromCloses(102, 105, 106, 108, 110)

	ema := NewEMA(3)
	assert.Equal(t, "EMA(3)", ema.Name())

	ema.Update(candles[0])
	ema.Update(candles[1])
	assert.False(t, ema.Ready())

	// Third candle seeds the EMA with the SMA.
	ema.Update(candles[2])
	assert.True(t, ema.Ready())
	seed := (102.0 + 105.0 + 106.0) / 3.0
	assert.InDelta(t, seed, ema.Value(), 1e-9)

	// Standard recursive formula afterwards.
	mult := 2.0 / 4.0
	want := (108.0-seed)*mult + seed
	ema.Update(candles[3])
	assert.InDelta(t, want, ema.Value(), 1e-9)
}

func TestATRStreaming(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []market.Candle{
		{Time: base, High: 105, Low: 99, Close: 102},
		{Time: base.Add(time.Hour), High: 107, Low: 101, Close: 105},
		{Time: base.Add(2 * time.Hour), High: 108, Low: 104, Close: 106},
		{Time: base.Add(3 * time.Hour), High: 112, Low: 105, Close: 108},
	}

	atr := NewATR(2)
	assert.Equal(t, "ATR(2)", atr.Name())
	assert.Equal(t, 3, atr.Warmup())

	atr.Update(candles[0])
	assert.False(t, atr.Ready())

	// TR1 = max(107-101, |107-102|, |101-102|) = 6
	atr.Update(candles[1])
	assert.False(t, atr.Ready())

	// TR2 = max(108-104, |108-105|, |104-105|) = 4 → seed = (6+4)/2 = 5
	atr.Update(candles[2])
	assert.True(t, atr.Ready())
	assert.InDelta(t, 5.0, atr.Value(), 1e-9)

	// TR3 = max(112-105, |112-106|, |105-106|) = 7 → (5*1+7)/2 = 6
	atr.Update(candles[3])
	assert.InDelta(t, 6.0, atr.Value(), 1e-9)
}

func TestDonchianChannels(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(i int, high, low float64) market.Candle {
		return market.Candle{Time: base.Add(time.Duration(i) * time.Hour), High: high, Low: low, Close: (high + low) / 2}
	}

	t.Run("entry channel excludes current bar", func(t *testing.T) {
		ch := NewEntryChannel(3)
		assert.Equal(t, 4, ch.Warmup())

		ch.Update(mk(0, 10, 5))
		ch.Update(mk(1, 12, 6))
		ch.Update(mk(2, 11, 4))
		assert.False(t, ch.Ready())

		// Window is bars 0..2; the current bar's 20/1 extremes are ignored.
		ch.Update(mk(3, 20, 1))
		assert.True(t, ch.Ready())
		assert.Equal(t, 12.0, ch.Upper())
		assert.Equal(t, 4.0, ch.Lower())

		// Window slides to bars 1..3.
		ch.Update(mk(4, 9, 7))
		assert.Equal(t, 20.0, ch.Upper())
		assert.Equal(t, 1.0, ch.Lower())
	})

	t.Run("exit channel includes current bar", func(t *testing.T) {
		ch := NewExitChannel(3)
		assert.Equal(t, 3, ch.Warmup())

		ch.Update(mk(0, 10, 5))
		ch.Update(mk(1, 12, 6))
		assert.False(t, ch.Ready())

		ch.Update(mk(2, 14, 4))
		assert.True(t, ch.Ready())
		assert.Equal(t, 14.0, ch.Upper())
		assert.Equal(t, 4.0, ch.Lower())
		assert.Equal(t, 9.0, ch.Mid())
	})

	t.Run("reset", func(t *testing.T) {
		ch := NewExitChannel(2)
		ch.Update(mk(0, 10, 5))
		ch.Update(mk(1, 12, 6))
		assert.True(t, ch.Ready())

		ch.Reset()
		assert.False(t, ch.Ready())
		assert.Equal(t, 0.0, ch.Upper())
	})
}

func TestRSIStreaming(t *testing.T) {
	t.Parallel()

	t.Run("all gains reads 100", func(t *testing.T) {
		rsi := NewRSI(3)
		for _, c := range barsFromCloses(100, 101, 102, 103, 104) {
			rsi.Update(c)
		}
		assert.True(t, rsi.Ready())
		assert.Equal(t, 100.0, rsi.Value())
	})

	t.Run("balanced gains and losses near 50", func(t *testing.T) {
		rsi := NewRSI(2)
		for _, c := range barsFromCloses(100, 102, 100, 102, 100) {
			rsi.Update(c)
		}
		assert.True(t, rsi.Ready())
		assert.Greater(t, rsi.Value(), 0.0)
		assert.Less(t, rsi.Value(), 100.0)
	})

	t.Run("warmup", func(t *testing.T) {
		rsi := NewRSI(14)
		assert.Equal(t, 15, rsi.Warmup())
		for _, c := range barsFromCloses(100, 101, 102) {
			rsi.Update(c)
		}
		assert.False(t, rsi.Ready())
		assert.Equal(t, 0.0, rsi.Value())
	})
}

func TestMACDStreaming(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 0, 60)
	for i := 0; i < 60; i++ {
		closes = append(closes, 100+float64(i))
	}

	macd := NewMACD(12, 26, 9)
	assert.Equal(t, "MACD(12,26,9)", macd.Name())
	assert.Equal(t, 34, macd.Warmup())

	// Ready flips exactly when the warmup count is met, not before.
	for i, c := range barsFromCloses(closes...) {
		macd.Update(c)
		assert.Equal(t, i >= macd.Warmup()-1, macd.Ready(), "bar %d", i)
	}
	assert.True(t, macd.Ready())

	// In a steady uptrend the MACD line sits above its signal initially,
	// converging as the trend matures; the histogram stays finite.
	v := macd.Value()
	assert.False(t, v != v, "histogram must not be NaN")
}

func TestVolumeMAStreaming(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	vma := NewVolumeMA(2)
	vma.Update(market.Candle{Time: base, Volume: 1000})
	assert.False(t, vma.Ready())
	vma.Update(market.Candle{Time: base.Add(time.Hour), Volume: 3000})
	assert.True(t, vma.Ready())
	assert.InDelta(t, 2000.0, vma.Value(), 1e-9)
}
