package engine

import (
	"fmt"
	"time"

	"github.com/quantdev/donchian/journal"
)

// TradeIntent is a fully sized entry decision, ready for execution.
type TradeIntent struct {
	Pair         string
	Time         time.Time
	Price        float64
	Size         float64
	Stake        float64
	StopPrice    float64
	StopDistance float64
	RiskUnit     float64
	Capped       bool
}

// Position is an open trade as the engine tracks it. RiskUnit is frozen
// at open so later config changes never change this trade's R.
type Position struct {
	TradeID    string
	Pair       string
	Direction  journal.Direction
	EntryPrice float64
	StopPrice  float64
	Size       float64
	RiskUnit   float64
	OpenTime   time.Time
}

// Snapshot is the indicator state after a bar, for logging and
// inspection.
type Snapshot struct {
	Time       time.Time
	Close      float64
	UpperEntry float64
	LowerEntry float64
	ExitMid    float64
	Trend      float64
	ATR        float64
	RSI        float64
	MACDHist   float64
	VolumeSMA  float64
	Ready      bool
}

// StateError reports an inconsistency between the engine's position
// book and the execution side. It is never swallowed.
type StateError struct {
	Op   string
	Pair string
	Msg  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("engine: state inconsistency in %s for %s: %s", e.Op, e.Pair, e.Msg)
}
