// Package indicators provides streaming technical indicators for the
// decision engine.
package indicators

import "github.com/quantdev/donchian/market"

// Indicator computes a single streaming value from candles.
// It is deterministic: feeding the same candle sequence always yields
// the same values, and only candles at or before the current bar are
// ever consulted.
type Indicator interface {
	// Name returns a stable identifier like "EMA(200)" or "ATR(14)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether the value is meaningful (warmup completed).
	Ready() bool
}

// ValueF64 is implemented by indicators exposing a single float value.
// Callers should always check Ready() first.
type ValueF64 interface {
	Value() float64
}
