package protect

import (
	"fmt"
	"time"

	"github.com/quantdev/donchian/journal"
	"github.com/quantdev/donchian/metrics"
)

// stoplossGuard denies entries on a pair after N stop exits within the
// last W bars for that pair. The window slides in bar-time.
type stoplossGuard struct {
	n          int
	windowBars int
	timeframe  time.Duration
	stops      map[string][]time.Time
}

func newStoplossGuard(n, windowBars int, timeframe time.Duration) *stoplossGuard {
	return &stoplossGuard{
		n:          n,
		windowBars: windowBars,
		timeframe:  timeframe,
		stops:      make(map[string][]time.Time),
	}
}

func (g *stoplossGuard) Name() string { return "stoploss_guard" }

func (g *stoplossGuard) Evaluate(pair string, now time.Time) *Violation {
	count := 0
	for _, ts := range g.stops[pair] {
		if barsBetween(ts, now, g.timeframe) < g.windowBars {
			count++
		}
	}
	if count < g.n {
		return nil
	}
	return &Violation{
		Guard: g.Name(),
		Code:  "STOPLOSS_GUARD",
		Msg:   fmt.Sprintf("%d stop exits on %s within last %d bars (limit %d)", count, pair, g.windowBars, g.n),
	}
}

func (g *stoplossGuard) OnTradeClosed(t journal.TradeRecord) {
	if t.Reason != journal.ExitStop {
		return
	}
	events := append(g.stops[t.Pair], t.CloseTime)
	// Drop events the window can never see again.
	kept := events[:0]
	for _, ts := range events {
		if barsBetween(ts, t.CloseTime, g.timeframe) < g.windowBars {
			kept = append(kept, ts)
		}
	}
	g.stops[t.Pair] = kept
}

// maxDrawdownGuard denies all entries while realized equity drawdown
// over the trailing window exceeds the configured fraction. Recovers
// automatically once the trailing drawdown falls back under threshold.
type maxDrawdownGuard struct {
	fraction   float64
	windowBars int
	timeframe  time.Duration
	equity     float64
	points     []equityPoint
}

type equityPoint struct {
	at     time.Time
	equity float64
}

func newMaxDrawdownGuard(fraction float64, windowBars int, startBalance float64, timeframe time.Duration) *maxDrawdownGuard {
	return &maxDrawdownGuard{
		fraction:   fraction,
		windowBars: windowBars,
		timeframe:  timeframe,
		equity:     startBalance,
	}
}

func (g *maxDrawdownGuard) Name() string { return "max_drawdown_guard" }

func (g *maxDrawdownGuard) Evaluate(_ string, now time.Time) *Violation {
	peak := g.equity
	for _, p := range g.points {
		if barsBetween(p.at, now, g.timeframe) < g.windowBars && p.equity > peak {
			peak = p.equity
		}
	}
	if peak <= 0 {
		return nil
	}
	dd := (peak - g.equity) / peak
	if dd <= g.fraction {
		return nil
	}
	return &Violation{
		Guard: g.Name(),
		Code:  "MAX_DRAWDOWN",
		Msg:   fmt.Sprintf("trailing drawdown %.2f%% exceeds limit %.2f%%", dd*100, g.fraction*100),
	}
}

func (g *maxDrawdownGuard) OnTradeClosed(t journal.TradeRecord) {
	g.equity += t.PnL()
	g.points = append(g.points, equityPoint{at: t.CloseTime, equity: g.equity})
	kept := g.points[:0]
	for _, p := range g.points {
		if barsBetween(p.at, t.CloseTime, g.timeframe) < g.windowBars {
			kept = append(kept, p)
		}
	}
	g.points = kept
}

// cooldownGuard denies entries on a pair for C bars after any close on
// that pair, regardless of outcome.
type cooldownGuard struct {
	bars      int
	timeframe time.Duration
	lastClose map[string]time.Time
}

func newCooldownGuard(bars int, timeframe time.Duration) *cooldownGuard {
	return &cooldownGuard{
		bars:      bars,
		timeframe: timeframe,
		lastClose: make(map[string]time.Time),
	}
}

func (g *cooldownGuard) Name() string { return "cooldown" }

func (g *cooldownGuard) Evaluate(pair string, now time.Time) *Violation {
	last, ok := g.lastClose[pair]
	if !ok {
		return nil
	}
	elapsed := barsBetween(last, now, g.timeframe)
	if elapsed >= g.bars {
		return nil
	}
	return &Violation{
		Guard: g.Name(),
		Code:  "COOLDOWN",
		Msg:   fmt.Sprintf("%s closed %d bars ago, cooldown is %d bars", pair, elapsed, g.bars),
	}
}

func (g *cooldownGuard) OnTradeClosed(t journal.TradeRecord) {
	g.lastClose[t.Pair] = t.CloseTime
}

// dailyLossLock accumulates realized R per trading day and denies all
// entries once the accumulated loss reaches the configured multiple.
// Day rollover is the only way to clear it before its day ends.
type dailyLossLock struct {
	maxLossR float64
	offset   time.Duration
	day      string
	accumR   float64
	locked   bool
}

func newDailyLossLock(maxLossR float64, offset time.Duration) *dailyLossLock {
	return &dailyLossLock{maxLossR: maxLossR, offset: offset}
}

func (g *dailyLossLock) Name() string { return "daily_loss_lock" }

// tradingDay maps a timestamp to the venue's trading-day label.
func (g *dailyLossLock) tradingDay(t time.Time) string {
	return t.Add(-g.offset).UTC().Format("2006-01-02")
}

func (g *dailyLossLock) rollover(day string) {
	if day == g.day {
		return
	}
	g.day = day
	g.accumR = 0
	g.locked = false
	metrics.DailyLossR.Set(0)
}

func (g *dailyLossLock) Evaluate(_ string, now time.Time) *Violation {
	g.rollover(g.tradingDay(now))
	if !g.locked {
		return nil
	}
	return &Violation{
		Guard: g.Name(),
		Code:  "DAILY_LOSS_LOCK",
		Msg:   fmt.Sprintf("daily loss %.2fR reached limit %.2fR, locked until day rollover", -g.accumR, g.maxLossR),
	}
}

func (g *dailyLossLock) OnTradeClosed(t journal.TradeRecord) {
	g.rollover(g.tradingDay(t.CloseTime))
	g.accumR += t.RMultiple()
	// Latched: later wins do not clear the lock, only rollover does.
	if g.accumR <= -g.maxLossR {
		g.locked = true
	}
	metrics.DailyLossR.Set(g.accumR)
}
