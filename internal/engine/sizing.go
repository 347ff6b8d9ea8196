package engine

import (
	"fmt"
	"math"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// DefaultLotSize is the minimum tradable increment in shares.
const DefaultLotSize = 100

// RoundLots rounds raw shares to the nearest multiple of lotSize. Ties
// at exactly half a lot round away from zero (250 → 300, -250 → -300).
func RoundLots(raw float64, lotSize int64) int64 {
	return int64(math.Round(raw/float64(lotSize))) * lotSize
}

// SizeLots converts weights into lot-sized goal positions for every
// universe member, spending cash. For weight w and price p:
//
//	raw  = w * cash / p
//	lots = RoundLots(raw, lotSize)
//
// and (raw - lots) * p is added to the returned leftover, which may be
// negative when rounding up over-commits. A zero (or absent) weight maps
// to a zero target without consulting prices. A non-zero weight whose
// price is missing fails with domain.ErrMissingPrice.
func SizeLots(universe []string, w domain.Weights, cash float64, prices map[string]float64, lotSize int64) ([]domain.GoalPosition, float64, error) {
	if lotSize <= 0 {
		lotSize = DefaultLotSize
	}

	goals := make([]domain.GoalPosition, 0, len(universe))
	var leftover float64
	for _, sec := range universe {
		weight := w[sec]
		if weight == 0 {
			goals = append(goals, domain.GoalPosition{Security: sec, TargetSize: 0})
			continue
		}

		p, ok := prices[sec]
		if !ok || !validPrice(p) {
			return nil, 0, fmt.Errorf("%w: %s", domain.ErrMissingPrice, sec)
		}

		raw := weight * cash / p
		lots := RoundLots(raw, lotSize)
		leftover += (raw - float64(lots)) * p
		goals = append(goals, domain.GoalPosition{Security: sec, TargetSize: lots})
	}
	return goals, leftover, nil
}
