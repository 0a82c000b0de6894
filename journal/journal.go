// Package journal records closed trades and converts them into
// normalized R-multiple records with summary statistics.
package journal

import "time"

// Direction of a trade: +1 long, -1 short.
type Direction int8

const (
	Long  Direction = +1
	Short Direction = -1
)

func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// Exit reasons recorded on a closed trade. Exactly one is recorded per
// close.
const (
	ExitStop     = "stop"
	ExitChannel  = "channel_exit"
	ExitMomentum = "momentum_exit"
	ExitROI      = "roi_target"
	ExitForced   = "forced"
)

// TradeRecord is a closed trade as reported by the execution side.
// Immutable once recorded. RiskUnit is the risk unit that was in force
// when the trade was opened, so later configuration changes never
// distort historical performance.
type TradeRecord struct {
	TradeID    string
	Pair       string
	Direction  Direction
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	RiskUnit   float64
	OpenTime   time.Time
	CloseTime  time.Time
	Reason     string
}

// PnL returns the realized profit/loss in account currency.
func (t TradeRecord) PnL() float64 {
	return (t.ExitPrice - t.EntryPrice) * float64(t.Direction) * t.Size
}

// RMultiple returns the realized PnL as a multiple of the trade's risk
// unit. Zero risk unit yields 0 rather than a division fault.
func (t TradeRecord) RMultiple() float64 {
	if t.RiskUnit == 0 {
		return 0
	}
	return t.PnL() / t.RiskUnit
}

// Duration returns how long the trade was open.
func (t TradeRecord) Duration() time.Duration {
	return t.CloseTime.Sub(t.OpenTime)
}

// Journal persists closed trades.
type Journal interface {
	RecordTrade(TradeRecord) error
	Close() error
}
