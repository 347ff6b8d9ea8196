package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/efreitasn/alphaexec/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOrder(entrust string, size int64, price float64) *domain.Order {
	return &domain.Order{
		Security:  "600000.SH",
		Action:    domain.ActionBuy,
		Price:     price,
		Size:      size,
		OrderDate: 20240102,
		TaskID:    "202401020001",
		EntrustID: entrust,
	}
}

// collect reads n events from the gateway or fails after a timeout.
func collect(t *testing.T, p *Paper, n int) []domain.Event {
	t.Helper()
	out := make([]domain.Event, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-p.Events():
			if !ok {
				t.Fatalf("events closed after %d of %d", len(out), n)
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestPaper_AutoFill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPaper(true, 16, discardLogger())
	p.Start(ctx)

	if err := p.PlaceOrder(ctx, newOrder("202401020001", 300, 10.5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evs := collect(t, p, 3)
	accepted, ok := evs[0].(domain.OrderStatusEvent)
	if !ok || accepted.Status != domain.OrderStatusAccepted {
		t.Fatalf("expected accepted status first, got %#v", evs[0])
	}
	trade, ok := evs[1].(domain.TradeEvent)
	if !ok {
		t.Fatalf("expected trade event, got %#v", evs[1])
	}
	if trade.Size != 300 || trade.Price != 10.5 || trade.TradeID == "" {
		t.Errorf("unexpected trade: %+v", trade)
	}
	if trade.TaskID != "202401020001" || trade.TradeDate != 20240102 {
		t.Errorf("trade lost order identity: %+v", trade)
	}
	filled, ok := evs[2].(domain.OrderStatusEvent)
	if !ok || filled.Status != domain.OrderStatusFilled || filled.FilledSize != 300 {
		t.Fatalf("expected filled status, got %#v", evs[2])
	}

	p.mu.Lock()
	ref := p.orders["202401020001"].brokerRef
	p.mu.Unlock()
	if ref == "" {
		t.Error("expected a broker reference for the order")
	}
}

func TestPaper_RejectsInvalidOrders(t *testing.T) {
	ctx := context.Background()
	p := NewPaper(true, 16, discardLogger())

	tests := []struct {
		name  string
		order *domain.Order
	}{
		{"empty entrust", newOrder("", 100, 10)},
		{"zero size", newOrder("e1", 0, 10)},
		{"zero price", newOrder("e2", 100, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.PlaceOrder(ctx, tt.order)
			if !errors.Is(err, ErrRejected) {
				t.Fatalf("expected ErrRejected, got %v", err)
			}
		})
	}

	status, _, err := p.state("e2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != domain.OrderStatusRejected {
		t.Errorf("expected rejected, got %s", status)
	}
}

func TestPaper_DuplicateEntrust(t *testing.T) {
	ctx := context.Background()
	p := NewPaper(false, 16, discardLogger())
	if err := p.PlaceOrder(ctx, newOrder("e1", 100, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.PlaceOrder(ctx, newOrder("e1", 100, 10)); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestPaper_ManualFillAndCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPaper(false, 16, discardLogger())
	p.Start(ctx)

	if err := p.PlaceOrder(ctx, newOrder("e1", 500, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Fill("e1", 200, 9.9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status, filled, _ := p.state("e1")
	if status != domain.OrderStatusPartiallyFilled || filled != 200 {
		t.Fatalf("expected partially_filled/200, got %s/%d", status, filled)
	}

	if err := p.CancelOrder(ctx, "e1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evs := collect(t, p, 4) // accepted, trade, partial, cancelled
	last, ok := evs[3].(domain.OrderStatusEvent)
	if !ok || last.Status != domain.OrderStatusCancelled || last.FilledSize != 200 {
		t.Fatalf("expected cancelled with 200 filled, got %#v", evs[3])
	}

	if err := p.CancelOrder(ctx, "e1"); !errors.Is(err, domain.ErrOrderNotCancellable) {
		t.Errorf("expected ErrOrderNotCancellable, got %v", err)
	}
	if err := p.Fill("e1", 100, 10); !errors.Is(err, domain.ErrOrderNotCancellable) {
		t.Errorf("expected ErrOrderNotCancellable on fill, got %v", err)
	}
}

func TestPaper_FillCapsAtRemaining(t *testing.T) {
	p := NewPaper(false, 16, discardLogger())
	if err := p.PlaceOrder(context.Background(), newOrder("e1", 100, 10)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Fill("e1", 1000, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status, filled, _ := p.state("e1")
	if status != domain.OrderStatusFilled || filled != 100 {
		t.Errorf("expected filled/100, got %s/%d", status, filled)
	}
}

func TestPaper_CancelUnknown(t *testing.T) {
	p := NewPaper(false, 16, discardLogger())
	err := p.CancelOrder(context.Background(), "missing")
	if !errors.Is(err, domain.ErrUnknownEntrust) {
		t.Errorf("expected ErrUnknownEntrust, got %v", err)
	}
}

func TestPaper_EventsClosedOnStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPaper(false, 0, discardLogger())
	p.Start(ctx)
	cancel()

	select {
	case _, ok := <-p.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}
