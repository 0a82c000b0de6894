package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/quantdev/donchian/journal"
	"github.com/quantdev/donchian/pkg/id"
)

// Executor fills entries and exits. The engine decides, the executor
// trades.
type Executor interface {
	Open(ctx context.Context, intent TradeIntent) (Position, error)
	Close(ctx context.Context, pos Position, price float64, reason string, at time.Time) (journal.TradeRecord, error)
	Balance() float64
}

// PaperExecutor fills every order at the requested price against a
// simulated balance. No slippage, no fees.
type PaperExecutor struct {
	balance float64
}

// NewPaperExecutor creates a paper executor with a starting balance.
func NewPaperExecutor(balance float64) *PaperExecutor {
	return &PaperExecutor{balance: balance}
}

func (p *PaperExecutor) Open(ctx context.Context, intent TradeIntent) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if intent.Size <= 0 {
		return Position{}, fmt.Errorf("paper: refusing order with size %f", intent.Size)
	}
	return Position{
		TradeID:    id.New(),
		Pair:       intent.Pair,
		Direction:  journal.Long,
		EntryPrice: intent.Price,
		StopPrice:  intent.StopPrice,
		Size:       intent.Size,
		RiskUnit:   intent.RiskUnit,
		OpenTime:   intent.Time,
	}, nil
}

func (p *PaperExecutor) Close(ctx context.Context, pos Position, price float64, reason string, at time.Time) (journal.TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return journal.TradeRecord{}, err
	}
	rec := journal.TradeRecord{
		TradeID:    pos.TradeID,
		Pair:       pos.Pair,
		Direction:  pos.Direction,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		Size:       pos.Size,
		RiskUnit:   pos.RiskUnit,
		OpenTime:   pos.OpenTime,
		CloseTime:  at,
		Reason:     reason,
	}
	p.balance += rec.PnL()
	return rec, nil
}

// Balance returns the current simulated balance.
func (p *PaperExecutor) Balance() float64 {
	return p.balance
}
