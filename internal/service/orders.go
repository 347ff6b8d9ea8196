package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/efreitasn/alphaexec/internal/engine"
)

// Id sequence kinds.
const (
	kindTask    = "task"
	kindEntrust = "entrust"
)

// PlaceRequest represents the input for a single order.
type PlaceRequest struct {
	TaskID      string // empty mints a new task
	Security    string
	Action      domain.Action
	Price       float64
	Size        int64
	PriceTarget domain.PriceTarget // empty selects the session default
	Algo        string
}

// Place submits one order. A new task id is minted unless req.TaskID is
// set. The order is recorded before the gateway sees it, so a gateway
// rejection returns the task id together with the error and the entrust
// stays recorded. A minted task id is only returned once the order has
// been recorded under it.
func (s *Session) Place(ctx context.Context, req PlaceRequest) (string, error) {
	if req.Algo != "" {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedAlgo, req.Algo)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := &domain.Order{
		Security:    req.Security,
		Action:      req.Action,
		Price:       req.Price,
		Size:        req.Size,
		PriceTarget: req.PriceTarget,
	}
	if err := s.validateOrder(order); err != nil {
		return "", err
	}

	taskID := req.TaskID
	if taskID == "" {
		var err error
		if taskID, err = s.nextID(kindTask); err != nil {
			return "", err
		}
	}
	err := s.submit(ctx, taskID, order)
	if order.EntrustID == "" && req.TaskID == "" {
		return "", err
	}
	return taskID, err
}

// PlaceBatch submits every order under one fresh task id. Every order
// is forwarded even when an earlier one fails; the failures come back
// joined, each prefixed with its entrust id. Orders are validated before
// anything is minted. The caller's orders are not modified.
func (s *Session) PlaceBatch(ctx context.Context, orders []*domain.Order, algo string) (string, error) {
	if algo != "" {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedAlgo, algo)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	taskID, _, err := s.placeBatch(ctx, orders)
	return taskID, err
}

// placeBatch must be called with s.mu held. It returns the submitted
// copies carrying their task and entrust ids. The task id is "" when no
// order could be recorded under it.
func (s *Session) placeBatch(ctx context.Context, orders []*domain.Order) (string, []*domain.Order, error) {
	if len(orders) == 0 {
		return "", nil, &domain.ValidationError{Message: "batch must contain at least one order"}
	}

	batch := make([]*domain.Order, len(orders))
	for i, o := range orders {
		c := *o
		c.TaskID, c.EntrustID = "", ""
		if err := s.validateOrder(&c); err != nil {
			return "", nil, fmt.Errorf("order %d: %w", i, err)
		}
		batch[i] = &c
	}

	taskID, err := s.nextID(kindTask)
	if err != nil {
		return "", nil, err
	}

	var errs []error
	recorded := 0
	for _, o := range batch {
		err := s.submit(ctx, taskID, o)
		if o.EntrustID != "" {
			recorded++
		}
		if err != nil {
			if o.EntrustID == "" {
				errs = append(errs, fmt.Errorf("%s: %w", o.Security, err))
			} else {
				errs = append(errs, fmt.Errorf("%s: %w", o.EntrustID, err))
			}
		}
	}

	if recorded == 0 {
		return "", nil, errors.Join(errs...)
	}

	s.logger.Info("batch submitted",
		slog.String("task_id", taskID),
		slog.Int("orders", len(batch)),
		slog.Int("failed", len(errs)),
	)
	return taskID, batch, errors.Join(errs...)
}

// validateOrder checks the caller-supplied fields and fills defaults.
func (s *Session) validateOrder(o *domain.Order) error {
	if o.Security == "" {
		return &domain.ValidationError{Message: "security is required"}
	}
	action, ok := domain.ParseAction(string(o.Action))
	if !ok {
		return &domain.ValidationError{Message: "action must be 'BUY' or 'SELL'"}
	}
	o.Action = action
	if o.Size <= 0 {
		return &domain.ValidationError{Message: "size must be a positive integer"}
	}
	if o.Price < 0 {
		return &domain.ValidationError{Message: "price must be non-negative"}
	}
	if o.PriceTarget == "" {
		o.PriceTarget = s.priceTarget
	}
	if !o.PriceTarget.Valid() {
		return &domain.ValidationError{Message: "price_target must be 'close' or 'vwap'"}
	}
	if o.Algo != "" {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedAlgo, o.Algo)
	}
	return nil
}

// submit mints the entrust id, records it under taskID, registers the
// order with the ledger and forwards it. Must be called with s.mu held.
func (s *Session) submit(ctx context.Context, taskID string, o *domain.Order) error {
	entrustID, err := s.nextID(kindEntrust)
	if err != nil {
		return err
	}
	if err := s.tasks.Record(taskID, entrustID); err != nil {
		return err
	}

	o.TaskID = taskID
	o.EntrustID = entrustID
	if o.OrderDate == 0 {
		o.OrderDate = s.tradeDate
	}
	s.ledger.AddOrder(o)

	if err := s.gw.PlaceOrder(ctx, o); err != nil {
		s.logger.Warn("order rejected",
			slog.String("task_id", taskID),
			slog.String("entrust_id", entrustID),
			slog.String("security", o.Security),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.logger.Info("order placed",
		slog.String("task_id", taskID),
		slog.String("entrust_id", entrustID),
		slog.String("security", o.Security),
		slog.String("action", string(o.Action)),
		slog.Int64("size", o.Size),
		slog.Float64("price", o.Price),
		slog.Float64("notional", o.Notional()),
	)
	return nil
}

// Cancel cancels every order recorded under taskID. Each entrust gets
// exactly one CancelOrder call even if an earlier one fails. It returns
// true only when every call succeeded. Unknown task ids return
// domain.ErrUnknownTask without contacting the gateway.
func (s *Session) Cancel(ctx context.Context, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entrusts, err := s.tasks.Entrusts(taskID)
	if err != nil {
		return false, err
	}

	var errs []error
	for _, id := range entrusts {
		if err := s.gw.CancelOrder(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}

	s.logger.Info("task cancel requested",
		slog.String("task_id", taskID),
		slog.Int("entrusts", len(entrusts)),
		slog.Int("failed", len(errs)),
	)
	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}
	return true, nil
}

// SendGoals diffs goals against the ledger and submits the resulting
// orders as one task. goals must name every universe member exactly once
// with a non-negative target. Orders are priced from the data provider
// at the session's price target. It returns "" with no error when the
// ledger already matches.
func (s *Session) SendGoals(ctx context.Context, goals []domain.GoalPosition) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateGoals(goals); err != nil {
		return "", err
	}

	prices := engine.FetchPrices(ctx, s.data, s.universe.Members(), s.tradeDate, s.priceTarget, s.logger)
	s.goals = append([]domain.GoalPosition(nil), goals...)
	_, taskID, err := s.sendGoals(ctx, goals, prices)
	return taskID, err
}

func (s *Session) validateGoals(goals []domain.GoalPosition) error {
	seen := make(map[string]bool, len(goals))
	for _, g := range goals {
		if !s.universe.Contains(g.Security) {
			return &domain.ValidationError{Message: fmt.Sprintf("%s is not in the universe", g.Security)}
		}
		if seen[g.Security] {
			return &domain.ValidationError{Message: fmt.Sprintf("%s appears more than once", g.Security)}
		}
		if g.TargetSize < 0 {
			return &domain.ValidationError{Message: fmt.Sprintf("%s has a negative target", g.Security)}
		}
		seen[g.Security] = true
	}
	if len(seen) != s.universe.Len() {
		return &domain.ValidationError{Message: "goals must cover every universe security"}
	}
	return nil
}

// sendGoals must be called with s.mu held. No orders means no task.
func (s *Session) sendGoals(ctx context.Context, goals []domain.GoalPosition, prices map[string]float64) ([]*domain.Order, string, error) {
	orders := engine.DiffGoals(goals, s.ledger.CurrentSize, prices, s.tradeDate, s.priceTarget)
	if len(orders) == 0 {
		return nil, "", nil
	}
	taskID, submitted, err := s.placeBatch(ctx, orders)
	return submitted, taskID, err
}

// Liquidate closes every held position in one task, priced at each
// position's last fill price. It returns "" with no error when nothing is
// held.
func (s *Session) Liquidate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []*domain.Order
	for _, pos := range s.ledger.Holdings() {
		action, size := domain.ActionSell, pos.CurrentSize
		if size < 0 {
			action, size = domain.ActionBuy, -size
		}
		orders = append(orders, &domain.Order{
			Security:    pos.Security,
			Action:      action,
			Price:       pos.LastPrice,
			Size:        size,
			OrderDate:   s.tradeDate,
			PriceTarget: s.priceTarget,
		})
	}
	if len(orders) == 0 {
		return "", nil
	}
	taskID, _, err := s.placeBatch(ctx, orders)
	return taskID, err
}
