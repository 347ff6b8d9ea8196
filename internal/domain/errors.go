package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrUnknownTask         = errors.New("unknown_task")
	ErrUnknownMethod       = errors.New("unknown_method")
	ErrUnknownEntrust      = errors.New("unknown_entrust")
	ErrAllSuspended        = errors.New("all_suspended")
	ErrNoFeasibleWeights   = errors.New("no_feasible_weights")
	ErrMissingPrice        = errors.New("missing_price")
	ErrUnsupportedAlgo     = errors.New("unsupported_algo")
	ErrSequenceOverflow    = errors.New("sequence_overflow")
	ErrEntrustConflict     = errors.New("entrust_conflict")
	ErrUniverseFrozen      = errors.New("universe_frozen")
	ErrOrderNotCancellable = errors.New("order_not_cancellable")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
