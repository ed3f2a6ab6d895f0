// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// HeaderSessionInvalidated tells the front-end to send the user back to sign-in.
const HeaderSessionInvalidated = "X-Session-Invalidated"

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var domainErr *shared.Error
	var fields map[string]string
	if errors.As(err, &domainErr) {
		fields = domainErr.Fields
	}
	message := shared.UserMessage(err)
	switch {
	case errors.Is(err, shared.ErrAuth):
		w.Header().Set(HeaderSessionInvalidated, "1")
		Problem(w, http.StatusUnauthorized, "Unauthorized", message)
	case errors.Is(err, shared.ErrValidation):
		ProblemWithFields(w, http.StatusBadRequest, "Validation Failed", message, fields)
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", message)
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", message)
	case errors.Is(err, shared.ErrTransport):
		Problem(w, http.StatusBadGateway, "Backend Unavailable", message)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
