package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/efreitasn/alphaexec/internal/engine"
)

// RebalanceReport summarizes a completed cycle.
type RebalanceReport struct {
	TradeDate     int
	Method        string
	TaskID        string // empty when the ledger already matched the goals
	Weights       domain.Weights
	Suspended     []string
	CashAvailable float64
	Allocatable   float64
	CashLeft      float64
	Orders        []*domain.Order
	OrderErr      error // joined gateway rejections; the cycle still committed
}

// RebalanceHook is notified after every committed cycle.
type RebalanceHook interface {
	OnAfterRebalance(ctx context.Context, report RebalanceReport)
}

// HookFunc adapts a plain function to RebalanceHook.
type HookFunc func(ctx context.Context, report RebalanceReport)

// OnAfterRebalance calls f.
func (f HookFunc) OnAfterRebalance(ctx context.Context, report RebalanceReport) {
	f(ctx, report)
}

// Rebalance runs one cycle: construct weights with the active method,
// zero suspended securities, price the universe, size lots, diff against
// the ledger and submit the orders as one task.
//
// Weights, goals and cash are committed only after sizing succeeds; any
// earlier failure returns an error and leaves them untouched. Gateway
// rejections do not undo the commit and are reported in OrderErr. The
// hook runs after the session lock is released.
func (s *Session) Rebalance(ctx context.Context) (RebalanceReport, error) {
	report, err := s.rebalance(ctx)
	if err != nil {
		s.logger.Warn("rebalance aborted", slog.String("error", err.Error()))
		return RebalanceReport{}, err
	}
	if s.hook != nil {
		s.hook.OnAfterRebalance(ctx, report)
	}
	return report, nil
}

func (s *Session) rebalance(ctx context.Context) (RebalanceReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	universe := s.universe.Members()

	name, entry, err := s.registry.Active()
	if err != nil {
		return RebalanceReport{}, err
	}
	weights, err := entry.Method.Construct(universe, entry.Options)
	if err != nil {
		return RebalanceReport{}, fmt.Errorf("construct weights with %s: %w", name, err)
	}

	suspended, err := s.data.Suspensions(ctx, s.tradeDate)
	if err != nil {
		return RebalanceReport{}, fmt.Errorf("load suspensions: %w", err)
	}
	adj, err := engine.AdjustForSuspensions(universe, weights, suspended, s.renormalize)
	if err != nil {
		return RebalanceReport{}, err
	}
	if len(adj.Suspended) > 0 {
		s.logger.Info("suspended securities zeroed",
			slog.Any("securities", adj.Suspended),
			slog.Float64("zeroed_weight", adj.ZeroedSum),
			slog.Bool("renormalized", adj.Renormalized),
		)
	}

	prices := engine.FetchPrices(ctx, s.data, universe, s.tradeDate, s.priceTarget, s.logger)

	cashAvailable := s.cash + s.ledger.MarketValue(prices)
	allocatable := cashAvailable * s.positionRatio
	unallocated := cashAvailable - allocatable

	goals, leftover, err := engine.SizeLots(universe, adj.Weights, allocatable, prices, s.lotSize)
	if err != nil {
		return RebalanceReport{}, err
	}

	s.weights = adj.Weights
	s.goals = goals
	s.cash = leftover + unallocated

	orders, taskID, orderErr := s.sendGoals(ctx, goals, prices)

	s.logger.Info("rebalance complete",
		slog.Int("trade_date", s.tradeDate),
		slog.String("method", name),
		slog.String("task_id", taskID),
		slog.Int("orders", len(orders)),
		slog.Float64("cash_available", cashAvailable),
		slog.Float64("cash_left", s.cash),
	)

	return RebalanceReport{
		TradeDate:     s.tradeDate,
		Method:        name,
		TaskID:        taskID,
		Weights:       s.weights.Clone(),
		Suspended:     adj.Suspended,
		CashAvailable: cashAvailable,
		Allocatable:   allocatable,
		CashLeft:      s.cash,
		Orders:        orders,
		OrderErr:      orderErr,
	}, nil
}
