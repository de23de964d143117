package httpx

import (
	"errors"
	"net/http"

	"github.com/ledgerline-erp/ledgerline-erp/internal/shared"
)

// RespondError maps the core error taxonomy to HTTP responses using RFC7807.
// Every failure carries a human-readable reason; persistence failures are
// surfaced generically after compensation has run.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAuthentication):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrBusinessRule):
		Problem(w, http.StatusUnprocessableEntity, "Business Rule Violated", err.Error())
	case errors.Is(err, shared.ErrPersistence):
		Problem(w, http.StatusInternalServerError, "Operation Failed", "the operation was rolled back")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
