package engine

import "github.com/efreitasn/alphaexec/internal/domain"

// DiffGoals turns goal positions into the orders that move current
// holdings onto them. current returns the held size, 0 when untracked.
// Orders come back in goal order without task or entrust ids; they
// carry prices[security] (0 when unknown) and target.
func DiffGoals(goals []domain.GoalPosition, current func(security string) int64, prices map[string]float64, date int, target domain.PriceTarget) []*domain.Order {
	var orders []*domain.Order
	for _, g := range goals {
		delta := g.TargetSize - current(g.Security)
		if delta == 0 {
			continue
		}
		action := domain.ActionBuy
		if delta < 0 {
			action = domain.ActionSell
			delta = -delta
		}
		orders = append(orders, &domain.Order{
			Security:    g.Security,
			Action:      action,
			Price:       prices[g.Security],
			Size:        delta,
			OrderDate:   date,
			PriceTarget: target,
		})
	}
	return orders
}
