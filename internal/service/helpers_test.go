package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/efreitasn/alphaexec/internal/construction"
	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/efreitasn/alphaexec/internal/ledger"
	"github.com/efreitasn/alphaexec/internal/marketdata"
)

const testDate = 20240102

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGateway records calls and fails the ones it is told to.
type fakeGateway struct {
	mu           sync.Mutex
	placed       []domain.Order
	cancelled    []string
	rejectPlace  map[string]error // security → error
	rejectCancel map[string]error // entrust_id → error
	events       chan domain.Event
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		rejectPlace:  make(map[string]error),
		rejectCancel: make(map[string]error),
		events:       make(chan domain.Event, 16),
	}
}

func (g *fakeGateway) PlaceOrder(_ context.Context, o *domain.Order) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.placed = append(g.placed, *o)
	return g.rejectPlace[o.Security]
}

func (g *fakeGateway) CancelOrder(_ context.Context, entrustID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelled = append(g.cancelled, entrustID)
	return g.rejectCancel[entrustID]
}

func (g *fakeGateway) Events() <-chan domain.Event {
	return g.events
}

func (g *fakeGateway) placedOrders() []domain.Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]domain.Order(nil), g.placed...)
}

func (g *fakeGateway) cancelCalls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.cancelled...)
}

type fixture struct {
	session *Session
	gw      *fakeGateway
	ledger  *ledger.Ledger
	data    *marketdata.Memory
}

// newFixture builds a session over universe A, B with the given cash
// and default config otherwise.
func newFixture(t *testing.T, cash float64, mutate ...func(*Config)) *fixture {
	t.Helper()

	cfg := Config{
		Universe:      domain.NewUniverse("A", "B"),
		TradeDate:     testDate,
		Cash:          cash,
		PositionRatio: 1,
		LotSize:       100,
		PriceTarget:   domain.PriceTargetClose,
		Renormalize:   true,
		MCSamples:     5,
		MCSeed:        42,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	f := &fixture{
		gw:     newFakeGateway(),
		ledger: ledger.New(),
		data:   marketdata.NewMemory(),
	}
	s, err := NewSession(cfg, f.data, f.gw, f.ledger, nil, discardLogger())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	f.session = s
	return f
}

// useWeights registers and activates a method returning w.
func (f *fixture) useWeights(t *testing.T, w domain.Weights) {
	t.Helper()
	f.session.RegisterMethod("fixed", construction.MethodFunc(func([]string, construction.Options) (domain.Weights, error) {
		return w.Clone(), nil
	}), construction.Options{})
	if err := f.session.ActivateMethod("fixed"); err != nil {
		t.Fatalf("ActivateMethod: %v", err)
	}
}

func (f *fixture) price(sec string, px float64) {
	f.data.PutBar(sec, domain.Bar{Date: testDate, Open: px, High: px, Low: px, Close: px, VWAP: px})
}

func (f *fixture) hold(t *testing.T, sec string, size int64, price float64) {
	t.Helper()
	err := f.ledger.ApplyTrade(domain.TradeEvent{
		TradeID:  "seed-" + sec,
		Security: sec,
		Action:   domain.ActionBuy,
		Size:     size,
		Price:    price,
	})
	if err != nil {
		t.Fatalf("seed position: %v", err)
	}
}
