// Package protect implements the layered protection state machine that
// can veto new trade entries, per pair or globally.
//
// Guards mutate state only on trade close and on day-boundary crossing,
// so replaying a closed-trade history reconstructs the exact guard
// state of a live session fed the same sequence.
package protect

import (
	"sort"
	"sync"
	"time"

	"github.com/quantdev/donchian/journal"
	"github.com/quantdev/donchian/logger"
	"github.com/quantdev/donchian/metrics"
)

// Violation describes why a single guard denied an entry.
type Violation struct {
	Guard string
	Code  string
	Msg   string
}

// Decision is the combined verdict of all guards. AND semantics: the
// entry is allowed only if every guard allows it.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

// Guard is one independent protection rule. Evaluate returns nil to
// allow or a Violation to deny. Implementations are not safe for
// concurrent use; the Manager serializes access.
type Guard interface {
	Name() string
	Evaluate(pair string, now time.Time) *Violation
	OnTradeClosed(t journal.TradeRecord)
}

// Config selects and parameterizes the guard registry. A zero value
// for a guard's primary threshold disables that guard.
type Config struct {
	StopCount          int     // StoplossGuard: N stop exits ...
	StopWindowBars     int     // ... within the last W bars, per pair
	DrawdownFraction   float64 // MaxDrawdownGuard: trailing drawdown limit
	DrawdownWindowBars int     // ... over W2 bars
	StartBalance       float64 // equity baseline for drawdown tracking
	CooldownBars       int     // CooldownPeriod: C bars per pair after any close
	MaxDailyLossR      float64 // DailyLossLock: loss in R that halts the day
	DayOffset          time.Duration // venue trading-day boundary vs UTC midnight
}

// Manager owns all guard state behind one mutex. Pair-level evaluations
// funnel through it so the shared daily-loss and drawdown accumulators
// have a single serialized writer.
type Manager struct {
	mu     sync.Mutex
	guards []Guard
	log    logger.Logger
}

// NewManager builds the guard registry from config. The guard set is
// fixed at startup.
func NewManager(cfg Config, timeframe time.Duration, log logger.Logger) *Manager {
	m := &Manager{log: log}
	if cfg.StopCount > 0 && cfg.StopWindowBars > 0 {
		m.guards = append(m.guards, newStoplossGuard(cfg.StopCount, cfg.StopWindowBars, timeframe))
	}
	if cfg.DrawdownFraction > 0 && cfg.DrawdownWindowBars > 0 {
		m.guards = append(m.guards, newMaxDrawdownGuard(cfg.DrawdownFraction, cfg.DrawdownWindowBars, cfg.StartBalance, timeframe))
	}
	if cfg.CooldownBars > 0 {
		m.guards = append(m.guards, newCooldownGuard(cfg.CooldownBars, timeframe))
	}
	if cfg.MaxDailyLossR > 0 {
		m.guards = append(m.guards, newDailyLossLock(cfg.MaxDailyLossR, cfg.DayOffset))
	}
	return m
}

// Evaluate asks every guard whether a new entry on pair is allowed at
// the given bar time.
func (m *Manager) Evaluate(pair string, now time.Time) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := Decision{Allowed: true}
	for _, g := range m.guards {
		if v := g.Evaluate(pair, now); v != nil {
			d.Allowed = false
			d.Violations = append(d.Violations, *v)
			metrics.EntriesVetoed.WithLabelValues(g.Name()).Inc()
			m.log.Info("entry_vetoed",
				logger.String("pair", pair),
				logger.String("guard", g.Name()),
				logger.String("code", v.Code),
				logger.Time("bar", now),
			)
		}
	}
	return d
}

// OnTradeClosed feeds a closed trade to every guard.
func (m *Manager) OnTradeClosed(t journal.TradeRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.guards {
		g.OnTradeClosed(t)
	}
}

// Replay reconstructs guard state from a closed-trade history. Trades
// are applied in close-time order regardless of input order.
func (m *Manager) Replay(trades []journal.TradeRecord) {
	sorted := make([]journal.TradeRecord, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CloseTime.Equal(sorted[j].CloseTime) {
			return sorted[i].CloseTime.Before(sorted[j].CloseTime)
		}
		return sorted[i].TradeID < sorted[j].TradeID
	})
	for _, t := range sorted {
		m.OnTradeClosed(t)
	}
}

// barsBetween measures elapsed bar-time, not wall-clock time: the
// number of whole bars between two timestamps.
func barsBetween(from, to time.Time, timeframe time.Duration) int {
	if timeframe <= 0 {
		return 0
	}
	return int(to.Sub(from) / timeframe)
}
