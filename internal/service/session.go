// Package service sequences the strategy session: order submission,
// task cancellation, the rebalance cycle and broker event application.
package service

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/efreitasn/alphaexec/internal/construction"
	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/efreitasn/alphaexec/internal/gateway"
	"github.com/efreitasn/alphaexec/internal/marketdata"
	"github.com/efreitasn/alphaexec/internal/store"
)

// Built-in construction method names.
const (
	MethodEqualWeight = "equal_weight"
	MethodMonteCarlo  = "mc"
)

// DefaultUtilityCoef weights risk and cost in the mc utility when the
// config leaves a coefficient unset.
const DefaultUtilityCoef = 1.0

// Ledger is the position and order book the session diffs goals against
// and feeds broker events into.
type Ledger interface {
	CurrentSize(security string) int64
	AddOrder(order *domain.Order)
	ApplyTrade(ev domain.TradeEvent) error
	ApplyStatus(ev domain.OrderStatusEvent) error
	MarketValue(prices map[string]float64) float64
	Position(security string) domain.Position
	Holdings() []domain.Position
	Orders(entrustIDs []string) []*domain.Order
	Status(entrustID string) (domain.OrderStatus, int64, bool)
	OnNewDay(date int)
}

// Config holds the session parameters.
type Config struct {
	Universe      *domain.Universe
	TradeDate     int // yyyymmdd; 0 selects today
	Cash          float64
	PositionRatio float64 // share of cash_available allocated to trading, in (0, 1]
	LotSize       int64
	SequenceLimit int64
	PriceTarget   domain.PriceTarget
	Renormalize   bool // rescale surviving weights after suspensions
	Method        string

	MCSamples int
	MCSeed    int64 // 0 seeds from the clock

	// Models behind the mc utility. Nil models contribute nothing; a zero
	// coefficient selects DefaultUtilityCoef.
	Revenue  construction.RevenueModel
	Risk     construction.RiskModel
	Cost     construction.CostModel
	RiskCoef float64
	CostCoef float64
}

// Session is one strategy trading one universe against one gateway. A
// single mutex serializes every operation that touches the task
// registry, weights, cash or the ledger.
type Session struct {
	mu sync.Mutex

	universe      *domain.Universe
	tradeDate     int
	cash          float64
	positionRatio float64
	lotSize       int64
	priceTarget   domain.PriceTarget
	renormalize   bool
	weights       domain.Weights
	goals         []domain.GoalPosition

	seq      *store.SequenceGenerator
	tasks    *store.TaskStore
	registry *construction.Registry
	data     marketdata.Provider
	gw       gateway.Gateway
	ledger   Ledger
	hook     RebalanceHook
	logger   *slog.Logger
}

// NewSession validates cfg, freezes the universe and registers the
// built-in construction methods. hook may be nil.
func NewSession(cfg Config, data marketdata.Provider, gw gateway.Gateway, ledger Ledger, hook RebalanceHook, logger *slog.Logger) (*Session, error) {
	if cfg.Universe == nil || cfg.Universe.Len() == 0 {
		return nil, &domain.ValidationError{Message: "universe must contain at least one security"}
	}
	if cfg.Cash < 0 {
		return nil, &domain.ValidationError{Message: "cash must be non-negative"}
	}
	if cfg.PositionRatio <= 0 || cfg.PositionRatio > 1 {
		return nil, &domain.ValidationError{Message: "position ratio must be in (0, 1]"}
	}
	if cfg.PriceTarget == "" {
		cfg.PriceTarget = domain.PriceTargetClose
	}
	if !cfg.PriceTarget.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid price target %q", cfg.PriceTarget)}
	}
	if cfg.TradeDate == 0 {
		cfg.TradeDate = domain.TradeDateOf(time.Now())
	}
	if !domain.ValidTradeDate(cfg.TradeDate) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("invalid trade date %d", cfg.TradeDate)}
	}
	if cfg.Method == "" {
		cfg.Method = MethodEqualWeight
	}
	if !(cfg.RiskCoef >= 0) || !(cfg.CostCoef >= 0) {
		return nil, &domain.ValidationError{Message: "utility coefficients must be non-negative"}
	}
	if cfg.RiskCoef == 0 {
		cfg.RiskCoef = DefaultUtilityCoef
	}
	if cfg.CostCoef == 0 {
		cfg.CostCoef = DefaultUtilityCoef
	}

	cfg.Universe.Freeze()

	s := &Session{
		universe:      cfg.Universe,
		tradeDate:     cfg.TradeDate,
		cash:          cfg.Cash,
		positionRatio: cfg.PositionRatio,
		lotSize:       cfg.LotSize,
		priceTarget:   cfg.PriceTarget,
		renormalize:   cfg.Renormalize,
		seq:           store.NewSequenceGenerator(cfg.SequenceLimit),
		tasks:         store.NewTaskStore(),
		registry:      construction.NewRegistry(),
		data:          data,
		gw:            gw,
		ledger:        ledger,
		hook:          hook,
		logger:        logger,
	}

	seed := cfg.MCSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.registry.Register(MethodEqualWeight, construction.EqualWeight, construction.Options{})
	s.registry.Register(MethodMonteCarlo,
		construction.NewNaiveOptimizer(cfg.MCSamples, rand.NewSource(seed)),
		construction.Options{Utility: s.netRevenue(cfg)},
	)
	if err := s.registry.Activate(cfg.Method); err != nil {
		return nil, err
	}
	return s, nil
}

// netRevenue builds the mc utility. Its "last weights" are the weights
// committed by the previous cycle; it is only evaluated during
// Rebalance, with s.mu held.
func (s *Session) netRevenue(cfg Config) construction.UtilityFunc {
	revenue := cfg.Revenue
	if revenue == nil {
		revenue = construction.ExpectedReturns{}
	}
	risk := cfg.Risk
	if risk == nil {
		risk = construction.DiagonalRisk{}
	}
	cost := cfg.Cost
	if cost == nil {
		cost = construction.LinearCost{}
	}
	return construction.NetRevenue(revenue, risk, cost,
		func() domain.Weights { return s.weights },
		cfg.RiskCoef, cfg.CostCoef,
	)
}

// nextID mints a task or entrust id: trade_date*10000 + seq, where seq
// counts per kind and trade date. Must be called with s.mu held.
func (s *Session) nextID(kind string) (string, error) {
	n, err := s.seq.Next(kind + ":" + strconv.Itoa(s.tradeDate))
	if err != nil {
		return "", fmt.Errorf("mint %s id: %w", kind, err)
	}
	return strconv.FormatInt(int64(s.tradeDate)*10000+n, 10), nil
}

// RegisterMethod adds or replaces a construction method.
func (s *Session) RegisterMethod(name string, m construction.Method, opts construction.Options) {
	s.registry.Register(name, m, opts)
}

// ActivateMethod selects the construction method for the next cycle.
func (s *Session) ActivateMethod(name string) error {
	if err := s.registry.Activate(name); err != nil {
		return err
	}
	s.logger.Info("construction method activated", slog.String("method", name))
	return nil
}

// ActiveMethod returns the active construction method name.
func (s *Session) ActiveMethod() string {
	return s.registry.ActiveName()
}

// Methods returns the registered construction method names, sorted.
func (s *Session) Methods() []string {
	return s.registry.Names()
}

// OnNewDay moves the session to a new trade date. Id sequences restart
// for the new date and the ledger rolls previous sizes.
func (s *Session) OnNewDay(date int) error {
	if !domain.ValidTradeDate(date) {
		return &domain.ValidationError{Message: fmt.Sprintf("invalid trade date %d", date)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tradeDate = date
	s.ledger.OnNewDay(date)
	s.logger.Info("new trade date", slog.Int("trade_date", date))
	return nil
}

// TradeDate returns the current trade date.
func (s *Session) TradeDate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tradeDate
}

// Cash returns the cash not committed to goal positions.
func (s *Session) Cash() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cash
}

// Weights returns a copy of the weights committed by the last cycle.
func (s *Session) Weights() domain.Weights {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.weights.Clone()
}

// Goals returns a copy of the goal positions committed by the last
// cycle or SendGoals call.
func (s *Session) Goals() []domain.GoalPosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.GoalPosition, len(s.goals))
	copy(out, s.goals)
	return out
}

// Universe returns the session's securities in order.
func (s *Session) Universe() []string {
	return s.universe.Members()
}

// QueryPortfolio returns the ledger position of every universe member,
// flat positions included.
func (s *Session) QueryPortfolio() []domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.universe.Members()
	out := make([]domain.Position, 0, len(members))
	for _, sec := range members {
		out = append(out, s.ledger.Position(sec))
	}
	return out
}

// Tasks returns every recorded task, ascending by id.
func (s *Session) Tasks() []store.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.List()
}

// TaskOrder is an order together with its last reported status.
type TaskOrder struct {
	Order      domain.Order
	Status     domain.OrderStatus
	FilledSize int64
}

// TaskOrders returns the orders recorded under taskID in submission
// order. It returns domain.ErrUnknownTask for unknown ids.
func (s *Session) TaskOrders(taskID string) ([]TaskOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entrusts, err := s.tasks.Entrusts(taskID)
	if err != nil {
		return nil, err
	}
	orders := s.ledger.Orders(entrusts)
	out := make([]TaskOrder, 0, len(orders))
	for _, o := range orders {
		status, filled, _ := s.ledger.Status(o.EntrustID)
		out = append(out, TaskOrder{Order: *o, Status: status, FilledSize: filled})
	}
	return out, nil
}
