// Package engine wires indicators, signal rules, risk sizing and the
// protection guards into a per-bar decision loop.
//
// OnBar consumes one closed candle and either does nothing, closes the
// open position, or emits a sized entry. The same candle sequence
// always produces the same decisions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quantdev/donchian/config"
	"github.com/quantdev/donchian/indicators"
	"github.com/quantdev/donchian/journal"
	"github.com/quantdev/donchian/logger"
	"github.com/quantdev/donchian/market"
	"github.com/quantdev/donchian/metrics"
	"github.com/quantdev/donchian/protect"
	"github.com/quantdev/donchian/risk"
)

// indicatorSet bundles the streaming indicators the strategy consults.
type indicatorSet struct {
	entry  *indicators.Channel
	exit   *indicators.Channel
	trend  *indicators.ExponentialMA
	atr    *indicators.ATR
	rsi    *indicators.RSI
	macd   *indicators.MACD
	volume *indicators.VolumeMA

	all []indicators.Indicator
}

func newIndicatorSet(s config.StrategyConfig) *indicatorSet {
	set := &indicatorSet{
		entry:  indicators.NewEntryChannel(s.DonchianEntry),
		exit:   indicators.NewExitChannel(s.DonchianExit),
		trend:  indicators.NewEMA(s.EMATrend),
		atr:    indicators.NewATR(s.ATRPeriod),
		rsi:    indicators.NewRSI(s.RSIPeriod),
		macd:   indicators.NewMACD(s.MACDFast, s.MACDSlow, s.MACDSignal),
		volume: indicators.NewVolumeMA(s.VolumeSMALen),
	}
	set.all = []indicators.Indicator{
		set.entry, set.exit, set.trend, set.atr, set.rsi, set.macd, set.volume,
	}
	return set
}

func (s *indicatorSet) update(c market.Candle) {
	for _, ind := range s.all {
		ind.Update(c)
	}
}

func (s *indicatorSet) ready() bool {
	for _, ind := range s.all {
		if !ind.Ready() {
			return false
		}
	}
	return true
}

// Engine is the per-pair decision loop. Not safe for concurrent use.
type Engine struct {
	strategy config.StrategyConfig
	riskCfg  config.RiskConfig

	series *market.Series
	ind    *indicatorSet
	mgr    *protect.Manager
	exec   Executor
	jnl    journal.Journal
	log    logger.Logger

	position *Position
	lastHist float64
	histSeen bool
}

// New builds an engine from config. The journal may be nil to disable
// persistence.
func New(cfg *config.Config, mgr *protect.Manager, exec Executor, jnl journal.Journal, log logger.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tf, err := cfg.Strategy.TimeframeDuration()
	if err != nil {
		return nil, err
	}
	return &Engine{
		strategy: cfg.Strategy,
		riskCfg:  cfg.Risk,
		series:   market.NewSeries(cfg.Strategy.Pair, tf),
		ind:      newIndicatorSet(cfg.Strategy),
		mgr:      mgr,
		exec:     exec,
		jnl:      jnl,
		log:      log,
	}, nil
}

// Position returns the currently open position, or nil.
func (e *Engine) Position() *Position {
	return e.position
}

// Snapshot returns the indicator state after the last bar.
func (e *Engine) Snapshot() Snapshot {
	last, ok := e.series.Last()
	if !ok {
		return Snapshot{}
	}
	s := Snapshot{
		Time:  last.Time,
		Close: last.Close,
		Ready: e.ind.ready(),
	}
	if s.Ready {
		s.UpperEntry = e.ind.entry.Upper()
		s.LowerEntry = e.ind.entry.Lower()
		s.ExitMid = e.ind.exit.Mid()
		s.Trend = e.ind.trend.Value()
		s.ATR = e.ind.atr.Value()
		s.RSI = e.ind.rsi.Value()
		s.MACDHist = e.ind.macd.Value()
		s.VolumeSMA = e.ind.volume.Value()
	}
	return s
}

// OnBar consumes the next closed candle. It returns the emitted entry
// intent, if any. Candles must arrive in strict time order; ordering
// violations are returned unmodified from the series.
func (e *Engine) OnBar(ctx context.Context, c market.Candle) (*TradeIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.series.Append(c); err != nil {
		return nil, err
	}

	prevHist, prevSeen := e.lastHist, e.histSeen
	e.ind.update(c)
	if !e.ind.ready() {
		return nil, nil
	}
	e.lastHist, e.histSeen = e.ind.macd.Value(), true

	if e.position != nil {
		if err := e.evalExit(ctx, c, prevHist, prevSeen); err != nil {
			return nil, err
		}
		// No same-bar re-entry after an exit.
		return nil, nil
	}

	return e.tryEnter(ctx, c)
}

// evalExit checks the exit rules in fixed priority order and closes the
// position on the first that fires.
func (e *Engine) evalExit(ctx context.Context, c market.Candle, prevHist float64, prevSeen bool) error {
	pos := e.position

	if c.Low <= pos.StopPrice {
		// A gap through the stop fills at the open, not the stop.
		fill := pos.StopPrice
		if c.Open < fill {
			fill = c.Open
		}
		return e.closePosition(ctx, fill, journal.ExitStop, c.Time)
	}

	if c.Close < e.ind.exit.Mid() {
		return e.closePosition(ctx, c.Close, journal.ExitChannel, c.Time)
	}

	rsiHot := e.ind.rsi.Value() >= e.strategy.RSIOverbought
	macdCross := prevSeen && prevHist >= 0 && e.ind.macd.Value() < 0
	if rsiHot || macdCross {
		return e.closePosition(ctx, c.Close, journal.ExitMomentum, c.Time)
	}

	if e.strategy.ROITarget > 0 && c.Close >= pos.EntryPrice*(1+e.strategy.ROITarget) {
		return e.closePosition(ctx, c.Close, journal.ExitROI, c.Time)
	}

	return nil
}

func (e *Engine) closePosition(ctx context.Context, price float64, reason string, at time.Time) error {
	pos := e.position
	rec, err := e.exec.Close(ctx, *pos, price, reason, at)
	if err != nil {
		return fmt.Errorf("close %s: %w", pos.TradeID, err)
	}

	e.position = nil
	metrics.PositionsOpen.Dec()
	metrics.TradesClosed.WithLabelValues(reason).Inc()

	if e.jnl != nil {
		if err := e.jnl.RecordTrade(rec); err != nil {
			return fmt.Errorf("journal %s: %w", rec.TradeID, err)
		}
	}
	e.mgr.OnTradeClosed(rec)

	e.log.Info("trade_closed",
		logger.String("trade_id", rec.TradeID),
		logger.String("pair", rec.Pair),
		logger.String("reason", reason),
		logger.Float64("pnl", rec.PnL()),
		logger.Float64("r", rec.RMultiple()),
	)
	return nil
}

// tryEnter runs the entry pipeline: breakout signal, trend and quality
// filters, protection guards, then sizing.
func (e *Engine) tryEnter(ctx context.Context, c market.Candle) (*TradeIntent, error) {
	s := e.strategy

	if c.Close <= e.ind.entry.Upper() {
		return nil, nil
	}
	if c.Close <= e.ind.trend.Value() {
		return nil, nil
	}
	if s.MinATRFraction > 0 && e.ind.atr.Value() < s.MinATRFraction*c.Close {
		return nil, nil
	}
	if s.VolumeFactor > 0 && c.Volume < s.VolumeFactor*e.ind.volume.Value() {
		return nil, nil
	}

	if dec := e.mgr.Evaluate(s.Pair, c.Time); !dec.Allowed {
		return nil, nil
	}

	sized, err := risk.Calculate(risk.Inputs{
		RiskUnit:         e.riskCfg.RiskUnitUSD,
		ATR:              e.ind.atr.Value(),
		ATRMult:          e.riskCfg.ATRMult,
		Price:            c.Close,
		Equity:           e.exec.Balance(),
		MaxStakeFraction: e.riskCfg.MaxStakeFraction,
	})
	if errors.Is(err, risk.ErrNoStopDistance) {
		// Degenerate volatility suppresses this bar's entry, nothing more.
		e.log.Warn("entry_skipped", logger.String("pair", s.Pair), logger.Err(err))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	intent := TradeIntent{
		Pair:         s.Pair,
		Time:         c.Time,
		Price:        c.Close,
		Size:         sized.Size,
		Stake:        sized.Stake,
		StopPrice:    c.Close - sized.StopDistance,
		StopDistance: sized.StopDistance,
		RiskUnit:     e.riskCfg.RiskUnitUSD,
		Capped:       sized.Capped,
	}
	metrics.IntentsEmitted.WithLabelValues(s.Pair).Inc()

	pos, err := e.exec.Open(ctx, intent)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Pair, err)
	}
	e.position = &pos
	metrics.PositionsOpen.Inc()

	e.log.Info("position_opened",
		logger.String("trade_id", pos.TradeID),
		logger.String("pair", pos.Pair),
		logger.Float64("entry", pos.EntryPrice),
		logger.Float64("stop", pos.StopPrice),
		logger.Float64("size", pos.Size),
	)
	return &intent, nil
}

// OnTradeClosed reconciles a close reported by the execution side, for
// example a stop filled at the venue. The record must match the open
// position or the books have diverged.
func (e *Engine) OnTradeClosed(rec journal.TradeRecord) error {
	if e.position == nil {
		return &StateError{Op: "OnTradeClosed", Pair: rec.Pair, Msg: "no open position"}
	}
	if e.position.TradeID != rec.TradeID {
		return &StateError{
			Op:   "OnTradeClosed",
			Pair: rec.Pair,
			Msg:  fmt.Sprintf("close for %s but open position is %s", rec.TradeID, e.position.TradeID),
		}
	}
	if e.position.Pair != rec.Pair {
		return &StateError{
			Op:   "OnTradeClosed",
			Pair: rec.Pair,
			Msg:  fmt.Sprintf("close for %s on %s but position %s is on %s",
				rec.TradeID, rec.Pair, e.position.TradeID, e.position.Pair),
		}
	}

	e.position = nil
	metrics.PositionsOpen.Dec()
	metrics.TradesClosed.WithLabelValues(rec.Reason).Inc()

	if e.jnl != nil {
		if err := e.jnl.RecordTrade(rec); err != nil {
			return fmt.Errorf("journal %s: %w", rec.TradeID, err)
		}
	}
	e.mgr.OnTradeClosed(rec)
	return nil
}

// CloseAll force-closes the open position at the given price, used on
// shutdown or at the end of a backtest.
func (e *Engine) CloseAll(ctx context.Context, price float64, at time.Time) error {
	if e.position == nil {
		return nil
	}
	return e.closePosition(ctx, price, journal.ExitForced, at)
}
