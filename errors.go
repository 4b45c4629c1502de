package typedapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/typedapi/typedapi/pkg/binder"
	"github.com/typedapi/typedapi/pkg/di"
	"github.com/typedapi/typedapi/pkg/validator"
)

// Error is an HTTP-facing error a handler may return. It is emitted
// verbatim as the standard envelope with its own status code.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details []any  `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewError creates an Error with the given status, message, and optional
// detail entries. Details may be strings or structured values.
func NewError(status int, message string, details ...any) *Error {
	return &Error{Status: status, Message: message, Details: details}
}

// Common client error constructors.
func ErrBadRequest(message string) *Error   { return NewError(http.StatusBadRequest, message) }
func ErrUnauthorized(message string) *Error { return NewError(http.StatusUnauthorized, message) }
func ErrForbidden(message string) *Error    { return NewError(http.StatusForbidden, message) }
func ErrNotFound(message string) *Error     { return NewError(http.StatusNotFound, message) }
func ErrConflict(message string) *Error     { return NewError(http.StatusConflict, message) }
func ErrInternal(message string) *Error     { return NewError(http.StatusInternalServerError, message) }

// ErrorHandler converts an error escaping the dispatcher into a response.
// Apps may replace the default with WithErrorHandler.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// validationDetail is one entry of a 422 envelope.
type validationDetail struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// DefaultErrorHandler maps framework errors onto the status-code policy:
// 400 for parse errors and missing required parameters, 415 for an
// unsupported media type, 422 for validation failures, 504 for per-route
// timeouts, 500 for everything else. A returned *Error wins over all of it.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		writeErrorEnvelope(w, apiErr.Status, apiErr.Message, apiErr.Details)
		return
	}

	var verrs validator.Errors
	if errors.As(err, &verrs) {
		details := make([]any, 0, len(verrs))
		for _, ve := range verrs {
			details = append(details, validationDetail{Path: ve.Path, Rule: ve.Rule, Message: ve.Message})
		}
		writeErrorEnvelope(w, http.StatusUnprocessableEntity, "Validation failed", details)
		return
	}

	switch {
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		writeErrorEnvelope(w, http.StatusUnsupportedMediaType, "Unsupported media type", []any{err.Error()})
	case isBindError(err):
		writeErrorEnvelope(w, http.StatusBadRequest, "Bad request", []any{err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorEnvelope(w, http.StatusGatewayTimeout, "Request timed out", nil)
	case errors.Is(err, di.ErrMissingProvider), errors.Is(err, di.ErrCycle), errors.Is(err, di.ErrFactory):
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error", nil)
	default:
		writeErrorEnvelope(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func isBindError(err error) bool {
	for _, target := range []error{
		binder.ErrInvalidJSON,
		binder.ErrInvalidForm,
		binder.ErrInvalidQuery,
		binder.ErrInvalidPath,
		binder.ErrInvalidHeader,
		binder.ErrInvalidCookie,
		binder.ErrInvalidFile,
		binder.ErrMissingRequired,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Details []any  `json:"details,omitempty"`
}

func writeErrorEnvelope(w http.ResponseWriter, status int, message string, details []any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: message, Details: details})
}
