package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/alphaexec/internal/domain"
)

// mapError writes the HTTP response for a service error.
func mapError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrUnsupportedAlgo):
		WriteError(w, http.StatusBadRequest, "unsupported_algo", err.Error())
	case errors.Is(err, domain.ErrUnknownTask):
		WriteError(w, http.StatusNotFound, "task_not_found", err.Error())
	case errors.Is(err, domain.ErrUnknownMethod):
		WriteError(w, http.StatusNotFound, "method_not_found", err.Error())
	case errors.Is(err, domain.ErrEntrustConflict):
		WriteError(w, http.StatusConflict, "entrust_conflict", err.Error())
	case errors.Is(err, domain.ErrSequenceOverflow):
		WriteError(w, http.StatusConflict, "sequence_overflow", err.Error())
	case errors.Is(err, domain.ErrAllSuspended):
		WriteError(w, http.StatusUnprocessableEntity, "all_suspended", err.Error())
	case errors.Is(err, domain.ErrNoFeasibleWeights):
		WriteError(w, http.StatusUnprocessableEntity, "no_feasible_weights", err.Error())
	case errors.Is(err, domain.ErrMissingPrice):
		WriteError(w, http.StatusUnprocessableEntity, "missing_price", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
