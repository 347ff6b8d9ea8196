package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// PriceSource supplies daily bars for a security.
type PriceSource interface {
	Daily(ctx context.Context, security string, date int) ([]domain.Bar, error)
}

// FetchPrices requests the latest bar for each universe security and
// returns the target price per security. A failed request, an empty
// series or a non-positive price is logged and the security is left out
// of the result; SizeLots decides whether that matters.
func FetchPrices(ctx context.Context, src PriceSource, universe []string, date int, target domain.PriceTarget, logger *slog.Logger) map[string]float64 {
	prices := make(map[string]float64, len(universe))
	for _, sec := range universe {
		bars, err := src.Daily(ctx, sec, date)
		if err != nil {
			logger.Warn("price lookup failed",
				slog.String("security", sec),
				slog.Int("date", date),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(bars) == 0 {
			logger.Warn("price lookup returned no bars",
				slog.String("security", sec),
				slog.Int("date", date),
			)
			continue
		}
		p := bars[len(bars)-1].Price(target)
		if !validPrice(p) {
			logger.Warn("price lookup returned unusable price",
				slog.String("security", sec),
				slog.Int("date", date),
				slog.Float64("price", p),
			)
			continue
		}
		prices[sec] = p
	}
	return prices
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
