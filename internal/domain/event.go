package domain

// Event is a message emitted asynchronously by the broker gateway.
// The concrete types are TradeEvent and OrderStatusEvent.
type Event interface {
	entrustID() string
}

// TradeEvent reports a fill.
type TradeEvent struct {
	TradeID   string
	EntrustID string
	TaskID    string
	Security  string
	Action    Action
	Price     float64
	Size      int64
	TradeDate int
}

func (e TradeEvent) entrustID() string { return e.EntrustID }

// OrderStatusEvent reports an order state transition.
type OrderStatusEvent struct {
	EntrustID  string
	TaskID     string
	Security   string
	Status     OrderStatus
	FilledSize int64
	Message    string
}

func (e OrderStatusEvent) entrustID() string { return e.EntrustID }

// EventEntrustID returns the entrust id an event refers to.
func EventEntrustID(e Event) string {
	return e.entrustID()
}
