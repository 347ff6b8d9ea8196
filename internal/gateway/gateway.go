// Package gateway defines the broker collaborator: order placement and
// cancellation calls that return an immediate accept/reject, and a
// channel of asynchronous fill and status events.
package gateway

import (
	"context"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// Gateway is the broker adapter a strategy session submits through.
// PlaceOrder and CancelOrder must not block on fills. Events delivers
// TradeEvent and OrderStatusEvent values; it is closed when the gateway
// stops.
type Gateway interface {
	PlaceOrder(ctx context.Context, order *domain.Order) error
	CancelOrder(ctx context.Context, entrustID string) error
	Events() <-chan domain.Event
}
