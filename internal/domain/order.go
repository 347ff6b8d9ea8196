package domain

import "strings"

// Action indicates whether an order buys or sells.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// ParseAction normalizes a case-insensitive action string.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToUpper(s)) {
	case ActionBuy:
		return ActionBuy, true
	case ActionSell:
		return ActionSell, true
	}
	return "", false
}

// PriceTarget names the reference price an order or a rebalance cycle
// is valued at.
type PriceTarget string

const (
	PriceTargetClose PriceTarget = "close"
	PriceTargetVWAP  PriceTarget = "vwap"
)

// Valid reports whether p is a supported price target.
func (p PriceTarget) Valid() bool {
	return p == PriceTargetClose || p == PriceTargetVWAP
}

// OrderStatus represents the lifecycle state of an order as reported
// by the gateway.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusAccepted        OrderStatus = "accepted"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// Final reports whether no further fills or status changes are expected.
func (s OrderStatus) Final() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// Order is a single child order sent to the broker. TaskID groups the
// orders issued from one strategic decision; EntrustID identifies this
// order towards the broker.
type Order struct {
	Security    string
	Action      Action
	Price       float64
	Size        int64
	OrderDate   int // yyyymmdd
	TaskID      string
	EntrustID   string
	PriceTarget PriceTarget
	Algo        string // execution algorithm; only the default ("") is supported
}

// Notional returns price × size.
func (o *Order) Notional() float64 {
	return o.Price * float64(o.Size)
}
