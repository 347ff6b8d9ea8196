package domain

import (
	"strings"
	"sync"
)

// Universe is the ordered set of securities a strategy trades. It is
// append-only while the strategy is being configured and frozen once
// trading starts. Insertion order is preserved so iteration is
// deterministic.
type Universe struct {
	mu      sync.RWMutex
	members []string
	index   map[string]bool
	frozen  bool
}

// NewUniverse creates a Universe containing the given securities.
func NewUniverse(securities ...string) *Universe {
	u := &Universe{index: make(map[string]bool)}
	for _, s := range securities {
		u.add(s)
	}
	return u
}

// Add appends securities, skipping blanks and duplicates. It returns
// ErrUniverseFrozen once Freeze has been called.
func (u *Universe) Add(securities ...string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.frozen {
		return ErrUniverseFrozen
	}
	for _, s := range securities {
		u.add(s)
	}
	return nil
}

// AddList adds a comma-separated list such as "600000.SH,000001.SZ".
func (u *Universe) AddList(list string) error {
	return u.Add(strings.Split(list, ",")...)
}

func (u *Universe) add(s string) {
	s = strings.TrimSpace(s)
	if s == "" || u.index[s] {
		return
	}
	u.index[s] = true
	u.members = append(u.members, s)
}

// Freeze makes the universe immutable.
func (u *Universe) Freeze() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.frozen = true
}

// Members returns a copy of the securities in insertion order.
func (u *Universe) Members() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, len(u.members))
	copy(out, u.members)
	return out
}

// Contains reports whether the security is in the universe.
func (u *Universe) Contains(security string) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.index[security]
}

// Len returns the number of securities.
func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.members)
}
