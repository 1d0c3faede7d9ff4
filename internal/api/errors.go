package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/smarthome-core/internal/dashboard"
	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/session"
	"github.com/nerrad567/smarthome-core/internal/snapshot"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeNotFound           = "not_found"
	ErrCodeUnauthorized       = "unauthorised"
	ErrCodeConflict           = "conflict"
	ErrCodeInternal           = "internal_error"
	ErrCodeValidation         = "validation_error"
	ErrCodeMethodNotAllow     = "method_not_allowed"
	ErrCodeStorageUnavailable = "storage_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps device, dashboard and snapshot errors to a status.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, err.Error())
	case device.IsInvalidArgument(err), errors.Is(err, device.ErrNoValueControl):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, dashboard.ErrNotAuthenticated):
		writeUnauthorized(w, session.Message(session.ErrNotLoggedIn))
	case errors.Is(err, snapshot.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, ErrCodeStorageUnavailable, err.Error())
	default:
		writeInternalError(w, "internal server error")
	}
}

// writeSessionError maps session errors to a status, using the account
// form's user-facing messages.
func writeSessionError(w http.ResponseWriter, err error) {
	msg := session.Message(err)
	switch {
	case session.IsValidation(err):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, msg)
	case errors.Is(err, session.ErrUsernameExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, msg)
	case errors.Is(err, session.ErrUserNotFound),
		errors.Is(err, session.ErrIncorrectPassword),
		errors.Is(err, session.ErrNotLoggedIn):
		writeUnauthorized(w, msg)
	default:
		writeInternalError(w, msg)
	}
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
