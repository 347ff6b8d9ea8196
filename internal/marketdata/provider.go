// Package marketdata defines the data collaborator a strategy session
// reads prices and suspension lists from, plus an in-memory provider.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// Provider supplies daily bars and trading halts.
type Provider interface {
	// Daily returns the bars for security up to and including date,
	// oldest first.
	Daily(ctx context.Context, security string, date int) ([]domain.Bar, error)
	// Suspensions returns the securities halted on date, nil if none.
	Suspensions(ctx context.Context, date int) ([]string, error)
}

// ErrNoData is returned by Memory when a security has no bar on or
// before the requested date.
var ErrNoData = errors.New("no_data")

// Memory is a thread-safe in-memory Provider.
type Memory struct {
	mu          sync.RWMutex
	bars        map[string][]domain.Bar // security → bars sorted by date
	suspensions map[int][]string
}

// NewMemory creates an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{
		bars:        make(map[string][]domain.Bar),
		suspensions: make(map[int][]string),
	}
}

// PutBar inserts or replaces the bar for its date.
func (m *Memory) PutBar(security string, bar domain.Bar) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bars := m.bars[security]
	idx := sort.Search(len(bars), func(i int) bool {
		return bars[i].Date >= bar.Date
	})
	if idx < len(bars) && bars[idx].Date == bar.Date {
		bars[idx] = bar
		return
	}
	bars = append(bars, domain.Bar{})
	copy(bars[idx+1:], bars[idx:])
	bars[idx] = bar
	m.bars[security] = bars
}

// SetSuspensions replaces the halted list for date.
func (m *Memory) SetSuspensions(date int, securities []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(securities) == 0 {
		delete(m.suspensions, date)
		return
	}
	cp := make([]string, len(securities))
	copy(cp, securities)
	m.suspensions[date] = cp
}

// Daily returns the most recent bar on or before date as a one-element
// series.
func (m *Memory) Daily(_ context.Context, security string, date int) ([]domain.Bar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bars := m.bars[security]
	idx := sort.Search(len(bars), func(i int) bool {
		return bars[i].Date > date
	})
	if idx == 0 {
		return nil, fmt.Errorf("%w: %s on %d", ErrNoData, security, date)
	}
	return []domain.Bar{bars[idx-1]}, nil
}

// Suspensions returns the halted securities for date.
func (m *Memory) Suspensions(_ context.Context, date int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.suspensions[date]
	if !ok {
		return nil, nil
	}
	cp := make([]string, len(s))
	copy(cp, s)
	return cp, nil
}
