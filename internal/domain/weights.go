package domain

// Weights maps security → fractional allocation. A Weights value is
// replaced wholesale each rebalance cycle; helpers here return copies.
type Weights map[string]float64

// Sum returns the total allocation.
func (w Weights) Sum() float64 {
	var s float64
	for _, v := range w {
		s += v
	}
	return s
}

// Clone returns an independent copy, or nil for a nil map.
func (w Weights) Clone() Weights {
	if w == nil {
		return nil
	}
	c := make(Weights, len(w))
	for k, v := range w {
		c[k] = v
	}
	return c
}
