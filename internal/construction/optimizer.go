package construction

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// DefaultSamples is the number of random candidates drawn per call.
const DefaultSamples = 5

// NaiveOptimizer is a Monte Carlo baseline: it draws a handful of random
// weight vectors and keeps the one with the lowest utility. It does not
// converge and gets worse as the universe grows.
//
// Each candidate is N uniform variates normalized to sum to 1. That is a
// point on the simplex but not a uniform draw over it: mass concentrates
// near the centroid.
type NaiveOptimizer struct {
	mu      sync.Mutex
	rng     *rand.Rand
	samples int
}

// NewNaiveOptimizer creates an optimizer drawing samples candidates from
// src. A non-positive samples selects DefaultSamples.
func NewNaiveOptimizer(samples int, src rand.Source) *NaiveOptimizer {
	if samples <= 0 {
		samples = DefaultSamples
	}
	return &NaiveOptimizer{
		rng:     rand.New(src),
		samples: samples,
	}
}

// Construct returns the candidate with the smallest utility. Ties keep
// the first candidate seen; if opts.Initial is set it is evaluated
// before the random draws. Candidates rejected by opts.Constraints and
// candidates whose utility is NaN or +Inf are never selected. When no
// candidate qualifies it returns nil weights and
// domain.ErrNoFeasibleWeights.
func (o *NaiveOptimizer) Construct(universe []string, opts Options) (domain.Weights, error) {
	if opts.Utility == nil {
		return nil, &domain.ValidationError{Message: "naive optimizer requires a utility function"}
	}
	n := len(universe)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty universe", domain.ErrNoFeasibleWeights)
	}

	candidates := make([]domain.Weights, 0, o.samples+1)
	if opts.Initial != nil {
		candidates = append(candidates, opts.Initial.Clone())
	}
	candidates = append(candidates, o.draw(universe)...)

	minF := math.Inf(1)
	var best domain.Weights
	for _, w := range candidates {
		if opts.Constraints != nil && !opts.Constraints.Allows(w) {
			continue
		}
		if f := opts.Utility(w); f < minF {
			minF = f
			best = w
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no candidate out of %d scored below %.2e", domain.ErrNoFeasibleWeights, len(candidates), minF)
	}
	return best, nil
}

// draw samples o.samples normalized candidates. Variates are consumed
// row by row, one per security in universe order.
func (o *NaiveOptimizer) draw(universe []string) []domain.Weights {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]domain.Weights, o.samples)
	row := make([]float64, len(universe))
	for i := range out {
		var sum float64
		for j := range row {
			row[j] = o.rng.Float64()
			sum += row[j]
		}
		w := make(domain.Weights, len(universe))
		for j, sec := range universe {
			w[sec] = row[j] / sum
		}
		out[i] = w
	}
	return out
}
