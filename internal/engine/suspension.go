// Package engine holds the pure steps of a rebalance cycle: suspension
// adjustment, price collection, lot sizing and goal diffing. None of
// them touch session state; the service layer sequences and commits.
package engine

import (
	"fmt"
	"math"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// SuspensionResult is the outcome of AdjustForSuspensions. Ratio is
// 1/(1 - ZeroedSum): multiplying the remaining weights by it restores
// their pre-suspension sum. It is +Inf when every unit of weight sat on
// suspended securities.
type SuspensionResult struct {
	Weights      domain.Weights
	Ratio        float64
	ZeroedSum    float64
	Suspended    []string // universe members that were zeroed, universe order
	Renormalized bool
}

// AdjustForSuspensions zeroes the weight of every suspended universe
// member and returns a new map; w is not modified. With no suspensions
// the weights are returned unchanged with Ratio 1. It returns
// domain.ErrAllSuspended if every universe member is suspended.
//
// When renormalize is true and Ratio is finite the remaining weights are
// scaled by Ratio.
func AdjustForSuspensions(universe []string, w domain.Weights, suspended []string, renormalize bool) (SuspensionResult, error) {
	if len(suspended) == 0 {
		return SuspensionResult{Weights: w.Clone(), Ratio: 1}, nil
	}

	halted := make(map[string]bool, len(suspended))
	for _, s := range suspended {
		halted[s] = true
	}

	var hit []string
	for _, sec := range universe {
		if halted[sec] {
			hit = append(hit, sec)
		}
	}
	if len(universe) > 0 && len(hit) == len(universe) {
		return SuspensionResult{}, fmt.Errorf("%w: %d of %d securities halted", domain.ErrAllSuspended, len(hit), len(universe))
	}

	out := w.Clone()
	if out == nil {
		out = make(domain.Weights)
	}
	var zeroed float64
	for _, sec := range hit {
		zeroed += out[sec]
		out[sec] = 0
	}

	res := SuspensionResult{
		Weights:   out,
		Ratio:     1 / (1 - zeroed),
		ZeroedSum: zeroed,
		Suspended: hit,
	}
	if zeroed >= 1 {
		res.Ratio = math.Inf(1)
	}

	if renormalize && !math.IsInf(res.Ratio, 0) && res.Ratio != 1 {
		for sec, v := range out {
			if !halted[sec] {
				out[sec] = v * res.Ratio
			}
		}
		res.Renormalized = true
	}
	return res, nil
}
