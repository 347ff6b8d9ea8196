package construction

import (
	"fmt"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// EqualWeight assigns 1/N to every security. Utility and constraints are
// ignored.
var EqualWeight = MethodFunc(equalWeight)

func equalWeight(universe []string, _ Options) (domain.Weights, error) {
	n := len(universe)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty universe", domain.ErrNoFeasibleWeights)
	}
	w := make(domain.Weights, n)
	for _, sec := range universe {
		w[sec] = 1.0 / float64(n)
	}
	return w, nil
}
