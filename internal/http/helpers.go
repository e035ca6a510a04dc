package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bjt/internal/ledger"
	applog "bjt/internal/log"
	"bjt/internal/services"
)

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// writeServiceError maps service and store errors to responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case services.IsValidation(err):
		UnprocessableEntityError(err.Error()).Write(w)
	case errors.Is(err, ledger.ErrNotFound):
		NotFoundError("not found").Write(w)
	case errors.Is(err, ledger.ErrConflict):
		ConflictError("already exists").Write(w)
	case errors.Is(err, context.DeadlineExceeded):
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Request timed out",
			applog.FieldOperation, op,
			applog.FieldPath, r.URL.Path,
			"error_type", applog.ErrorTypeTimeout)
		InternalServerError("request timed out").Write(w)
	default:
		fields := applog.NewFields()
		fields["error_type"] = applog.ErrorTypeInternal
		fields[applog.FieldPath] = r.URL.Path
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, fields)
		InternalServerError("internal error").Write(w)
	}
}
