// Package ledger keeps the strategy's view of positions and orders,
// updated from broker fill and status events.
package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/shopspring/decimal"
)

// orderState is a submitted order plus the lifecycle fields the broker
// reports back.
type orderState struct {
	order  domain.Order
	status domain.OrderStatus
	filled int64
}

// Ledger is a thread-safe in-memory position and order book. Cost
// basis and realized profit are kept as decimals so repeated fills do
// not accumulate float error.
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]*domain.Position
	orders    map[string]*orderState // entrust_id → order
	trades    map[string]struct{}    // applied trade ids
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		positions: make(map[string]*domain.Position),
		orders:    make(map[string]*orderState),
		trades:    make(map[string]struct{}),
	}
}

// AddOrder registers a submitted order with status new. Registering the
// same entrust id again replaces the earlier record.
func (l *Ledger) AddOrder(o *domain.Order) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.orders[o.EntrustID] = &orderState{order: *o, status: domain.OrderStatusNew}
}

// ApplyTrade books a fill against the security's position. A fill
// against the opposite side first closes the open position at its
// average entry price, realizing the difference; any remainder opens a
// new position at the fill price. A trade id that was already applied
// is ignored.
func (l *Ledger) ApplyTrade(ev domain.TradeEvent) error {
	if ev.Security == "" {
		return &domain.ValidationError{Message: "trade security is required"}
	}
	if ev.Size <= 0 {
		return &domain.ValidationError{Message: "trade size must be positive"}
	}
	if ev.Price <= 0 {
		return &domain.ValidationError{Message: "trade price must be positive"}
	}
	if ev.Action != domain.ActionBuy && ev.Action != domain.ActionSell {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid trade action %q", ev.Action)}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ev.TradeID != "" {
		if _, seen := l.trades[ev.TradeID]; seen {
			return nil
		}
		l.trades[ev.TradeID] = struct{}{}
	}

	pos := l.position(ev.Security)
	price := decimal.NewFromFloat(ev.Price)

	delta := ev.Size
	if ev.Action == domain.ActionSell {
		delta = -ev.Size
	}
	opened := ev.Size
	if pos.CurrentSize != 0 && (pos.CurrentSize > 0) != (delta > 0) {
		held := abs(pos.CurrentSize)
		closed := min(ev.Size, held)
		avg := pos.CostBasis.Div(decimal.NewFromInt(held))
		closedQty := decimal.NewFromInt(closed)
		pnl := price.Sub(avg).Mul(closedQty)
		if pos.CurrentSize < 0 {
			pnl = pnl.Neg()
		}
		pos.Realized = pos.Realized.Add(pnl)
		pos.CostBasis = pos.CostBasis.Sub(avg.Mul(closedQty))
		if closed == held {
			pos.CostBasis = decimal.Zero
		}
		opened = ev.Size - closed
	}
	pos.CostBasis = pos.CostBasis.Add(price.Mul(decimal.NewFromInt(opened)))
	pos.CurrentSize += delta
	pos.LastPrice = ev.Price

	if st, ok := l.orders[ev.EntrustID]; ok {
		st.filled += ev.Size
		switch {
		case st.status.Final():
		case st.filled >= st.order.Size:
			st.status = domain.OrderStatusFilled
		default:
			st.status = domain.OrderStatusPartiallyFilled
		}
	}
	return nil
}

// ApplyStatus records a status transition reported by the broker.
// Statuses for entrusts the ledger never saw return
// domain.ErrUnknownEntrust.
func (l *Ledger) ApplyStatus(ev domain.OrderStatusEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.orders[ev.EntrustID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownEntrust, ev.EntrustID)
	}
	if regresses(st.status, ev.Status) {
		return nil
	}
	st.status = ev.Status
	if ev.FilledSize > st.filled {
		st.filled = ev.FilledSize
	}
	return nil
}

// regresses reports whether moving from cur to next would undo progress
// already booked, as when an accepted status arrives after a fill. Final
// statuses are terminal.
func regresses(cur, next domain.OrderStatus) bool {
	if cur.Final() {
		return next != cur
	}
	if cur == domain.OrderStatusPartiallyFilled {
		return next == domain.OrderStatusNew || next == domain.OrderStatusAccepted
	}
	return false
}

// position returns the mutable position for sec, creating it if
// needed. Must be called with l.mu held for writing.
func (l *Ledger) position(sec string) *domain.Position {
	pos, ok := l.positions[sec]
	if !ok {
		pos = &domain.Position{Security: sec}
		l.positions[sec] = pos
	}
	return pos
}

// CurrentSize returns the held size of sec, 0 if untracked.
func (l *Ledger) CurrentSize(sec string) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if pos, ok := l.positions[sec]; ok {
		return pos.CurrentSize
	}
	return 0
}

// Position returns a copy of the position in sec. Untracked securities
// return a zero position.
func (l *Ledger) Position(sec string) domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if pos, ok := l.positions[sec]; ok {
		return *pos
	}
	return domain.Position{Security: sec}
}

// Holdings returns every non-flat position, sorted by security.
func (l *Ledger) Holdings() []domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		if pos.CurrentSize != 0 {
			out = append(out, *pos)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Security < out[j].Security })
	return out
}

// MarketValue values every position at prices[sec], falling back to the
// position's last fill price when the map has no usable price.
func (l *Ledger) MarketValue(prices map[string]float64) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := decimal.Zero
	for sec, pos := range l.positions {
		if pos.CurrentSize == 0 {
			continue
		}
		price, ok := prices[sec]
		if !ok || price <= 0 {
			price = pos.LastPrice
		}
		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(pos.CurrentSize)))
	}
	return total.InexactFloat64()
}

// Orders returns copies of the orders with the given entrust ids, in
// the same order. Unknown ids are skipped.
func (l *Ledger) Orders(entrustIDs []string) []*domain.Order {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*domain.Order, 0, len(entrustIDs))
	for _, id := range entrustIDs {
		if st, ok := l.orders[id]; ok {
			o := st.order
			out = append(out, &o)
		}
	}
	return out
}

// Status returns the last known status and filled size of an order.
func (l *Ledger) Status(entrustID string) (domain.OrderStatus, int64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st, ok := l.orders[entrustID]
	if !ok {
		return "", 0, false
	}
	return st.status, st.filled, true
}

// OnNewDay rolls every position's current size into its previous size.
func (l *Ledger) OnNewDay(_ int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, pos := range l.positions {
		pos.PreviousSize = pos.CurrentSize
	}
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
