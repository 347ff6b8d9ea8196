package domain

import "github.com/shopspring/decimal"

// GoalPosition is the desired absolute holding for a security after a
// rebalance, not a delta.
type GoalPosition struct {
	Security   string
	TargetSize int64
}

// Position is the ledger's view of a holding in a single security.
type Position struct {
	Security     string
	CurrentSize  int64
	PreviousSize int64           // size at the close of the previous trade date
	LastPrice    float64         // price of the most recent fill, 0 if none
	CostBasis    decimal.Decimal // entry cost of |CurrentSize|, positive for shorts too
	Realized     decimal.Decimal // realized profit from closing fills
}

// Bar is one daily price record from the data provider.
type Bar struct {
	Date  int // yyyymmdd
	Open  float64
	High  float64
	Low   float64
	Close float64
	VWAP  float64
}

// Price returns the bar's price for the given target.
func (b Bar) Price(target PriceTarget) float64 {
	if target == PriceTargetVWAP {
		return b.VWAP
	}
	return b.Close
}
