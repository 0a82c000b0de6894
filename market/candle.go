// Package market holds the core price data types shared by the engine,
// indicators, and tooling.
package market

import "time"

// Candle represents one OHLCV bar for a single pair at a single timeframe.
// Candles are immutable once received.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// TypicalPrice returns (high + low + close) / 3.
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// Range returns high - low.
func (c Candle) Range() float64 {
	return c.High - c.Low
}
