// Package risk converts a fixed risk-unit budget and current volatility
// into a position size and stop distance.
package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoStopDistance is returned when volatility is degenerate (zero,
// NaN, or infinite) and no valid stop distance can be derived. Callers
// suppress the entry for that bar; this is never fatal.
var ErrNoStopDistance = errors.New("risk: no valid stop distance")

// Stop distance bounds as a fraction of entry price. A stop tighter
// than 1% gets whipsawed by noise; wider than 15% risks more than the
// unit is worth protecting.
const (
	minStopFraction = 0.01
	maxStopFraction = 0.15
)

// Inputs carries everything needed to size one trade.
type Inputs struct {
	RiskUnit float64 // account-currency loss tolerated on one unit of risk (R)
	ATR      float64 // current volatility range
	ATRMult  float64 // stop multiplier k: stop distance = k * ATR
	Price    float64 // current price, for stake conversion and stop bounds
	Equity   float64 // tradable balance
	MaxStakeFraction float64 // cap on stake as a fraction of equity; 0 disables
}

// Result is the sized trade.
type Result struct {
	Size         float64 // base-asset units
	Stake        float64 // quote-currency stake (size * price)
	StopDistance float64 // price distance to the stop, after bounds
	Capped       bool    // stake was clamped to the equity cap
}

// Calculate sizes a trade so that a stop hit loses about one risk unit:
// size = R / (k * ATR). The stop distance is clamped to sane bounds
// relative to price, and the stake is capped at MaxStakeFraction of
// equity (the cap shrinks the trade, it does not cancel it).
func Calculate(in Inputs) (Result, error) {
	if in.RiskUnit <= 0 {
		return Result{}, fmt.Errorf("risk: risk unit must be positive, got %f", in.RiskUnit)
	}
	if in.Price <= 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return Result{}, fmt.Errorf("risk: invalid price %f", in.Price)
	}

	stopDist := in.ATRMult * in.ATR
	if stopDist <= 0 || math.IsNaN(stopDist) || math.IsInf(stopDist, 0) {
		return Result{}, fmt.Errorf("%w: atr=%f mult=%f", ErrNoStopDistance, in.ATR, in.ATRMult)
	}

	stopDist = math.Max(stopDist, in.Price*minStopFraction)
	stopDist = math.Min(stopDist, in.Price*maxStopFraction)

	size := in.RiskUnit / stopDist
	stake := size * in.Price

	res := Result{
		Size:         size,
		Stake:        stake,
		StopDistance: stopDist,
	}

	if in.MaxStakeFraction > 0 && in.Equity > 0 {
		maxStake := in.Equity * in.MaxStakeFraction
		if stake > maxStake {
			res.Stake = maxStake
			res.Size = maxStake / in.Price
			res.Capped = true
		}
	}

	return res, nil
}
