// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-fin/meridian/internal/shared"
)

// RespondError maps the shared domain sentinels to RFC7807 responses.
// Unrecognized errors become an opaque 500.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrSystemRole):
		Problem(w, http.StatusConflict, "Protected Role", err.Error())
	case errors.Is(err, shared.ErrDuplicateCode):
		Problem(w, http.StatusConflict, "Duplicate Code", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
