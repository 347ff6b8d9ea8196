package construction

import (
	"math"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// RevenueModel forecasts the expected revenue of a weight vector.
type RevenueModel interface {
	ForecastRevenue(target domain.Weights) float64
}

// RiskModel measures the risk of a weight vector.
type RiskModel interface {
	Risk(target domain.Weights) float64
}

// CostModel estimates the cost of moving from last to target.
type CostModel interface {
	Cost(last, target domain.Weights) float64
}

// NetRevenue builds the utility used by the optimizer:
//
//	utility = -(revenue - riskCoef*risk - costCoef*cost)
//
// The sign is negated so that minimizing the utility maximizes net
// revenue. last supplies the weights currently held.
func NetRevenue(revenue RevenueModel, risk RiskModel, cost CostModel, last func() domain.Weights, riskCoef, costCoef float64) UtilityFunc {
	return func(target domain.Weights) float64 {
		var lastW domain.Weights
		if last != nil {
			lastW = last()
		}
		net := revenue.ForecastRevenue(target) -
			riskCoef*risk.Risk(target) -
			costCoef*cost.Cost(lastW, target)
		return -net
	}
}

// ExpectedReturns is a RevenueModel with a fixed expected return per
// security; securities without an entry contribute nothing.
type ExpectedReturns map[string]float64

// ForecastRevenue returns Σ w·r.
func (r ExpectedReturns) ForecastRevenue(target domain.Weights) float64 {
	var s float64
	for sec, w := range target {
		s += w * r[sec]
	}
	return s
}

// DiagonalRisk is a RiskModel that ignores covariances: Σ w²·σ².
type DiagonalRisk map[string]float64

// Risk returns the portfolio variance under independent returns.
func (v DiagonalRisk) Risk(target domain.Weights) float64 {
	var s float64
	for sec, w := range target {
		s += w * w * v[sec]
	}
	return s
}

// LinearCost charges Rate per unit of turnover.
type LinearCost struct {
	Rate float64
}

// Cost returns Rate × Σ|target - last| over the union of securities.
func (c LinearCost) Cost(last, target domain.Weights) float64 {
	var turnover float64
	for sec, w := range target {
		turnover += math.Abs(w - last[sec])
	}
	for sec, w := range last {
		if _, ok := target[sec]; !ok {
			turnover += math.Abs(w)
		}
	}
	return c.Rate * turnover
}
