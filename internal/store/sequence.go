package store

import (
	"fmt"
	"sync"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// DefaultSequenceLimit is the largest sequence value that still fits in
// the four low decimal digits of a trade_date*10000+seq identifier.
const DefaultSequenceLimit = 9999

// SequenceGenerator hands out per-key monotonically increasing integers,
// starting at 1 on first use of a key. Values are never reused.
type SequenceGenerator struct {
	mu       sync.Mutex
	limit    int64
	counters map[string]int64
}

// NewSequenceGenerator creates a generator that refuses to go past limit.
// A non-positive limit selects DefaultSequenceLimit.
func NewSequenceGenerator(limit int64) *SequenceGenerator {
	if limit <= 0 {
		limit = DefaultSequenceLimit
	}
	return &SequenceGenerator{
		limit:    limit,
		counters: make(map[string]int64),
	}
}

// Next returns the next value for key. It returns
// domain.ErrSequenceOverflow, without advancing, once the limit has been
// handed out.
func (g *SequenceGenerator) Next(key string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.counters[key]
	if cur >= g.limit {
		return 0, fmt.Errorf("%w: key %q reached %d", domain.ErrSequenceOverflow, key, g.limit)
	}
	cur++
	g.counters[key] = cur
	return cur, nil
}

// current returns the last value handed out for key, 0 if none.
func (g *SequenceGenerator) current(key string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counters[key]
}
