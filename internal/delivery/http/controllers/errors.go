package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"volunteerhub/internal/delivery/http/helpers"
	"volunteerhub/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// emailRegex matches a simple email format (local@domain with at least one dot in domain).
var emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// writeServiceError maps domain sentinel errors onto the API error envelope.
// Business-rule rejections surface as definitive outcomes; anything
// unrecognized is logged and reported as an internal error.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrDuplicateInvitation):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrEventClosed):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeEventClosed, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeCapacityExceeded, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeInvalidTransition, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
