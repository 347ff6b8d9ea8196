// Package construction holds the portfolio-construction methods a
// strategy can switch between and the registry that selects one per
// rebalance cycle.
package construction

import (
	"fmt"
	"sort"
	"sync"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// UtilityFunc scores a candidate weight vector. Methods minimize it.
type UtilityFunc func(w domain.Weights) float64

// Constraints restricts the candidates a method may return. A nil
// Constraints allows everything.
type Constraints interface {
	Allows(w domain.Weights) bool
}

// Options is the uniform input every method receives. Any field may be
// nil; methods that do not need a field ignore it.
type Options struct {
	Utility     UtilityFunc
	Constraints Constraints
	Initial     domain.Weights
}

// Method produces target weights for the universe.
type Method interface {
	Construct(universe []string, opts Options) (domain.Weights, error)
}

// MethodFunc adapts a plain function to Method.
type MethodFunc func(universe []string, opts Options) (domain.Weights, error)

// Construct calls f.
func (f MethodFunc) Construct(universe []string, opts Options) (domain.Weights, error) {
	return f(universe, opts)
}

// Entry is a registered method together with its default options.
type Entry struct {
	Method  Method
	Options Options
}

// Registry is a name → method table with one active entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	active  string
}

// NewRegistry creates an empty Registry with nothing active.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register stores a method under name, replacing any previous entry.
func (r *Registry) Register(name string, m Method, opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = Entry{Method: m, Options: opts}
}

// Activate selects the method that drives the next rebalance.
func (r *Registry) Activate(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownMethod, name)
	}
	r.active = name
	return nil
}

// Active returns the active method. It returns domain.ErrUnknownMethod
// when nothing has been activated.
func (r *Registry) Active() (string, Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[r.active]
	if !ok {
		return "", Entry{}, fmt.Errorf("%w: no active method", domain.ErrUnknownMethod)
	}
	return r.active, e, nil
}

// ActiveName returns the active method name, "" if none.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
