package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/google/uuid"
)

// ErrRejected is returned by Paper when it refuses an order.
var ErrRejected = errors.New("order_rejected")

// paperOrder is the broker-side record of an accepted order.
type paperOrder struct {
	order     domain.Order
	brokerRef string
	status    domain.OrderStatus
	filled    int64
}

// Paper is an in-process Gateway that accepts orders at their limit
// price. With AutoFill every accepted order is filled in full
// immediately; otherwise orders rest until Fill or CancelOrder.
//
// Events are queued internally and forwarded by the goroutine started
// with Start, so PlaceOrder and CancelOrder never block on a slow
// consumer.
type Paper struct {
	mu       sync.Mutex
	autoFill bool
	orders   map[string]*paperOrder // entrust_id → order
	queue    []domain.Event
	notify   chan struct{}
	events   chan domain.Event
	logger   *slog.Logger
}

// NewPaper creates a paper gateway whose Events channel has the given
// buffer size.
func NewPaper(autoFill bool, buffer int, logger *slog.Logger) *Paper {
	if buffer < 0 {
		buffer = 0
	}
	return &Paper{
		autoFill: autoFill,
		orders:   make(map[string]*paperOrder),
		notify:   make(chan struct{}, 1),
		events:   make(chan domain.Event, buffer),
		logger:   logger,
	}
}

// Events returns the event channel. It is closed after Start's context
// is cancelled and the queue has been abandoned.
func (p *Paper) Events() <-chan domain.Event {
	return p.events
}

// Start launches the goroutine that forwards queued events. It stops
// when ctx is cancelled.
func (p *Paper) Start(ctx context.Context) {
	go func() {
		defer close(p.events)
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.notify:
				if !p.flush(ctx) {
					return
				}
			}
		}
	}()
}

// flush forwards everything queued so far. It returns false if ctx was
// cancelled mid-way.
func (p *Paper) flush(ctx context.Context) bool {
	p.mu.Lock()
	pending := p.queue
	p.queue = nil
	p.mu.Unlock()

	for _, ev := range pending {
		select {
		case p.events <- ev:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// enqueue must be called with p.mu held.
func (p *Paper) enqueue(evs ...domain.Event) {
	p.queue = append(p.queue, evs...)
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// PlaceOrder accepts the order or rejects it synchronously. Orders with
// a non-positive price or size, an empty security or a reused entrust id
// are rejected.
func (p *Paper) PlaceOrder(_ context.Context, order *domain.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if order.EntrustID == "" {
		return fmt.Errorf("%w: entrust_id required", ErrRejected)
	}
	if _, exists := p.orders[order.EntrustID]; exists {
		return fmt.Errorf("%w: duplicate entrust_id %s", ErrRejected, order.EntrustID)
	}

	var reason string
	switch {
	case order.Security == "":
		reason = "security required"
	case order.Size <= 0:
		reason = "size must be positive"
	case order.Price <= 0:
		reason = "price must be positive"
	}

	po := &paperOrder{
		order:     *order,
		brokerRef: uuid.New().String(),
		status:    domain.OrderStatusAccepted,
	}
	p.orders[order.EntrustID] = po

	if reason != "" {
		po.status = domain.OrderStatusRejected
		p.enqueue(p.statusEvent(po, reason))
		p.logger.Info("paper order rejected",
			slog.String("entrust_id", order.EntrustID),
			slog.String("reason", reason),
		)
		return fmt.Errorf("%w: %s", ErrRejected, reason)
	}

	p.enqueue(p.statusEvent(po, ""))
	p.logger.Info("paper order accepted",
		slog.String("entrust_id", order.EntrustID),
		slog.String("broker_ref", po.brokerRef),
	)
	if p.autoFill {
		p.fill(po, order.Size, order.Price)
	}
	return nil
}

// CancelOrder cancels the unfilled remainder of an order.
func (p *Paper) CancelOrder(_ context.Context, entrustID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	po, ok := p.orders[entrustID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownEntrust, entrustID)
	}
	if po.status.Final() {
		return fmt.Errorf("%w: %s is %s", domain.ErrOrderNotCancellable, entrustID, po.status)
	}
	po.status = domain.OrderStatusCancelled
	p.enqueue(p.statusEvent(po, ""))
	return nil
}

// Fill executes up to size shares of a resting order at price. It is
// how tests and manual operation drive fills when AutoFill is off.
func (p *Paper) Fill(entrustID string, size int64, price float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	po, ok := p.orders[entrustID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownEntrust, entrustID)
	}
	if po.status.Final() {
		return fmt.Errorf("%w: %s is %s", domain.ErrOrderNotCancellable, entrustID, po.status)
	}
	if size <= 0 || price <= 0 {
		return &domain.ValidationError{Message: "fill size and price must be positive"}
	}
	p.fill(po, size, price)
	return nil
}

// fill must be called with p.mu held.
func (p *Paper) fill(po *paperOrder, size int64, price float64) {
	if remaining := po.order.Size - po.filled; size > remaining {
		size = remaining
	}
	po.filled += size
	if po.filled == po.order.Size {
		po.status = domain.OrderStatusFilled
	} else {
		po.status = domain.OrderStatusPartiallyFilled
	}

	p.enqueue(
		domain.TradeEvent{
			TradeID:   uuid.New().String(),
			EntrustID: po.order.EntrustID,
			TaskID:    po.order.TaskID,
			Security:  po.order.Security,
			Action:    po.order.Action,
			Price:     price,
			Size:      size,
			TradeDate: po.order.OrderDate,
		},
		p.statusEvent(po, ""),
	)
}

func (p *Paper) statusEvent(po *paperOrder, msg string) domain.OrderStatusEvent {
	return domain.OrderStatusEvent{
		EntrustID:  po.order.EntrustID,
		TaskID:     po.order.TaskID,
		Security:   po.order.Security,
		Status:     po.status,
		FilledSize: po.filled,
		Message:    msg,
	}
}

// state returns the broker-side status and filled size of an order.
func (p *Paper) state(entrustID string) (domain.OrderStatus, int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	po, ok := p.orders[entrustID]
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", domain.ErrUnknownEntrust, entrustID)
	}
	return po.status, po.filled, nil
}

var _ Gateway = (*Paper)(nil)
