package construction

import (
	"errors"
	"reflect"
	"testing"

	"github.com/efreitasn/alphaexec/internal/domain"
)

func constMethod(v float64) Method {
	return MethodFunc(func(universe []string, _ Options) (domain.Weights, error) {
		w := make(domain.Weights, len(universe))
		for _, s := range universe {
			w[s] = v
		}
		return w, nil
	})
}

func TestRegistry_ActivateUnknown(t *testing.T) {
	r := NewRegistry()
	err := r.Activate("missing")
	if !errors.Is(err, domain.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
	if r.ActiveName() != "" {
		t.Errorf("ActiveName = %q after failed activation, want empty", r.ActiveName())
	}
}

func TestRegistry_NoActive(t *testing.T) {
	r := NewRegistry()
	r.Register("equal_weight", EqualWeight, Options{})

	_, _, err := r.Active()
	if !errors.Is(err, domain.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod with nothing active, got %v", err)
	}
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register("m", constMethod(0.1), Options{})
	r.Register("m", constMethod(0.2), Options{})
	if err := r.Activate("m"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name, e, err := r.Active()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "m" {
		t.Errorf("Active name = %q, want m", name)
	}
	w, _ := e.Method.Construct([]string{"A"}, e.Options)
	if w["A"] != 0.2 {
		t.Errorf("expected the second registration to win, got weight %v", w["A"])
	}
}

func TestRegistry_OptionsStoredWithEntry(t *testing.T) {
	r := NewRegistry()
	initial := domain.Weights{"A": 1}
	r.Register("m", constMethod(0), Options{Initial: initial})
	_ = r.Activate("m")

	_, e, _ := r.Active()
	if !reflect.DeepEqual(e.Options.Initial, initial) {
		t.Errorf("Options.Initial = %v, want %v", e.Options.Initial, initial)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Register("mc", constMethod(0), Options{})
	r.Register("equal_weight", EqualWeight, Options{})

	want := []string{"equal_weight", "mc"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
}
