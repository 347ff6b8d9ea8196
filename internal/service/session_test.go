package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/efreitasn/alphaexec/internal/construction"
	"github.com/efreitasn/alphaexec/internal/domain"
	"github.com/efreitasn/alphaexec/internal/ledger"
	"github.com/efreitasn/alphaexec/internal/marketdata"
)

func TestNewSession_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty universe", func(c *Config) { c.Universe = domain.NewUniverse() }, nil},
		{"negative cash", func(c *Config) { c.Cash = -1 }, nil},
		{"zero ratio", func(c *Config) { c.PositionRatio = 0 }, nil},
		{"ratio above one", func(c *Config) { c.PositionRatio = 1.5 }, nil},
		{"bad price target", func(c *Config) { c.PriceTarget = "open" }, nil},
		{"bad trade date", func(c *Config) { c.TradeDate = 20241340 }, nil},
		{"negative risk coefficient", func(c *Config) { c.RiskCoef = -1 }, nil},
		{"NaN cost coefficient", func(c *Config) { c.CostCoef = math.NaN() }, nil},
		{"unknown method", func(c *Config) { c.Method = "black_litterman" }, domain.ErrUnknownMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Universe:      domain.NewUniverse("A"),
				TradeDate:     testDate,
				PositionRatio: 1,
			}
			tt.mutate(&cfg)
			_, err := NewSession(cfg, marketdata.NewMemory(), newFakeGateway(), ledger.New(), nil, discardLogger())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestNewSession_MonteCarloUtilityCoefficients(t *testing.T) {
	target := domain.Weights{"A": 1, "B": 0}

	tests := []struct {
		name     string
		riskCoef float64
		costCoef float64
		want     float64
	}{
		// -(0 - 1*100 - 1*1): unset coefficients weigh risk and cost at 1.
		{"defaults", 0, 0, 101},
		{"explicit", 2, 0.5, 200.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Universe:      domain.NewUniverse("A", "B"),
				TradeDate:     testDate,
				PositionRatio: 1,
				Method:        MethodMonteCarlo,
				MCSeed:        1,
				Risk:          construction.DiagonalRisk{"A": 100, "B": 100},
				Cost:          construction.LinearCost{Rate: 1},
				RiskCoef:      tt.riskCoef,
				CostCoef:      tt.costCoef,
			}
			s, err := NewSession(cfg, marketdata.NewMemory(), newFakeGateway(), ledger.New(), nil, discardLogger())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, entry, err := s.registry.Active()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := entry.Options.Utility(target); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("utility(%v) = %v, want %v", target, got, tt.want)
			}
		})
	}
}

func TestNewSession_FreezesUniverseAndRegistersBuiltins(t *testing.T) {
	f := newFixture(t, 0)

	if err := f.session.universe.Add("C"); !errors.Is(err, domain.ErrUniverseFrozen) {
		t.Errorf("expected ErrUniverseFrozen, got %v", err)
	}

	names := f.session.Methods()
	if len(names) != 2 || names[0] != MethodEqualWeight || names[1] != MethodMonteCarlo {
		t.Errorf("unexpected methods: %v", names)
	}
	if f.session.ActiveMethod() != MethodEqualWeight {
		t.Errorf("expected %s active, got %s", MethodEqualWeight, f.session.ActiveMethod())
	}
}

func TestSession_ActivateMethod_Unknown(t *testing.T) {
	f := newFixture(t, 0)
	if err := f.session.ActivateMethod("nope"); !errors.Is(err, domain.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	if f.session.ActiveMethod() != MethodEqualWeight {
		t.Error("failed activation changed the active method")
	}
}

func TestSession_OnNewDay(t *testing.T) {
	f := newFixture(t, 0)
	f.hold(t, "A", 300, 10)

	if err := f.session.OnNewDay(20240131); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.session.TradeDate() != 20240131 {
		t.Errorf("expected trade date 20240131, got %d", f.session.TradeDate())
	}
	if pos := f.ledger.Position("A"); pos.PreviousSize != 300 {
		t.Errorf("expected previous size 300, got %d", pos.PreviousSize)
	}

	err := f.session.OnNewDay(20240132)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if f.session.TradeDate() != 20240131 {
		t.Error("invalid date changed the trade date")
	}
}

func TestSession_QueryPortfolio(t *testing.T) {
	f := newFixture(t, 0)
	f.hold(t, "B", 200, 5)

	got := f.session.QueryPortfolio()
	if len(got) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(got))
	}
	if got[0].Security != "A" || got[0].CurrentSize != 0 {
		t.Errorf("unexpected A position: %+v", got[0])
	}
	if got[1].Security != "B" || got[1].CurrentSize != 200 {
		t.Errorf("unexpected B position: %+v", got[1])
	}
}

func TestSession_MonteCarloMethod(t *testing.T) {
	f := newFixture(t, 100000)
	f.price("A", 10)
	f.price("B", 20)

	if err := f.session.ActivateMethod(MethodMonteCarlo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	report, err := f.session.Rebalance(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Method != MethodMonteCarlo {
		t.Errorf("expected method mc, got %s", report.Method)
	}
	if sum := report.Weights.Sum(); math.Abs(sum-1) > 1e-9 {
		t.Errorf("expected weights summing to 1, got %v", sum)
	}
}
