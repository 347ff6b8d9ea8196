package service

import (
	"context"
	"log/slog"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// Run applies gateway events to the ledger until ctx is cancelled or the
// event channel is closed. It must run in exactly one goroutine.
func (s *Session) Run(ctx context.Context) {
	events := s.gw.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.logger.Info("gateway event stream closed")
				return
			}
			s.apply(ev)
		}
	}
}

// apply books a single event. Failures are logged; the stream keeps
// flowing.
func (s *Session) apply(ev domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e := ev.(type) {
	case domain.TradeEvent:
		if err := s.ledger.ApplyTrade(e); err != nil {
			s.logger.Error("failed to apply trade",
				slog.String("trade_id", e.TradeID),
				slog.String("entrust_id", e.EntrustID),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.Info("trade applied",
			slog.String("task_id", e.TaskID),
			slog.String("entrust_id", e.EntrustID),
			slog.String("security", e.Security),
			slog.String("action", string(e.Action)),
			slog.Int64("size", e.Size),
			slog.Float64("price", e.Price),
		)
	case domain.OrderStatusEvent:
		if err := s.ledger.ApplyStatus(e); err != nil {
			s.logger.Error("failed to apply order status",
				slog.String("entrust_id", e.EntrustID),
				slog.String("status", string(e.Status)),
				slog.String("error", err.Error()),
			)
			return
		}
		if e.Status == domain.OrderStatusRejected {
			s.logger.Warn("order rejected by broker",
				slog.String("entrust_id", e.EntrustID),
				slog.String("message", e.Message),
			)
		}
	default:
		s.logger.Warn("unknown gateway event",
			slog.String("entrust_id", domain.EventEntrustID(ev)),
		)
	}
}
