package construction

import (
	"math"
	"testing"

	"github.com/efreitasn/alphaexec/internal/domain"
)

func TestNetRevenue_SignConvention(t *testing.T) {
	revenue := ExpectedReturns{"A": 0.10, "B": 0.02}
	risk := DiagonalRisk{"A": 0.04, "B": 0.01}
	cost := LinearCost{Rate: 0.001}
	last := func() domain.Weights { return domain.Weights{"A": 0.5, "B": 0.5} }

	util := NetRevenue(revenue, risk, cost, last, 1, 1)

	w := domain.Weights{"A": 0.8, "B": 0.2}
	// revenue 0.084, risk 0.0256+0.0004=0.026, cost 0.001*0.6=0.0006
	wantNet := 0.084 - 0.026 - 0.0006
	if got := util(w); math.Abs(got+wantNet) > 1e-12 {
		t.Errorf("util = %v, want %v (negated net revenue)", got, -wantNet)
	}

	// A portfolio with more net revenue scores lower.
	better := domain.Weights{"A": 1, "B": 0}
	worse := domain.Weights{"A": 0, "B": 1}
	if util(better) >= util(worse) {
		t.Errorf("higher net revenue should produce a lower utility: %v >= %v", util(better), util(worse))
	}
}

func TestNetRevenue_Coefficients(t *testing.T) {
	revenue := ExpectedReturns{"A": 0}
	risk := DiagonalRisk{"A": 1}
	cost := LinearCost{Rate: 1}
	w := domain.Weights{"A": 1}

	util := NetRevenue(revenue, risk, cost, nil, 2, 3)
	// risk 1*2, cost |1-0|*1*3
	if got := util(w); math.Abs(got-5) > 1e-12 {
		t.Errorf("util = %v, want 5", got)
	}
}

func TestLinearCost_UnionOfSecurities(t *testing.T) {
	c := LinearCost{Rate: 0.5}
	last := domain.Weights{"A": 0.4, "C": 0.2}
	target := domain.Weights{"A": 0.1, "B": 0.3}
	// |0.1-0.4| + |0.3-0| + |0.2| = 0.8
	if got := c.Cost(last, target); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("Cost = %v, want 0.4", got)
	}
}
