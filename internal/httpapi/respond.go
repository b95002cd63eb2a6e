package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/auth"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/engine"
	"github.com/opencrvs/opencrvs-countryconfig-sub005/internal/store"
)

// Response is a standard API response.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody represents an error in the response.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// writeJSON sends a JSON response.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	})
}

// writeError maps domain errors onto HTTP statuses and a stable error
// envelope. The engine's rejection codes pass through verbatim so API
// clients can branch on them the same way CLI users do.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &ErrorBody{
		Code:    "INTERNAL_ERROR",
		Message: "an unexpected error occurred",
	}

	var te *engine.TransitionError
	switch {
	case errors.As(err, &te):
		body.Code = string(te.Code)
		body.Message = te.Message
		body.Details = te.Details
		status = statusForCode(te.Code)
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		body.Code = "NOT_FOUND"
		body.Message = "record not found"
	case errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Success: false, Error: body})
}

func statusForCode(code engine.TransitionErrorCode) int {
	switch code {
	case engine.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case engine.ErrCodeInsufficientScope:
		return http.StatusForbidden
	case engine.ErrCodeInvalidTransition,
		engine.ErrCodeNotAssigned,
		engine.ErrCodeConcurrentModification:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeValidationError reports request-shape problems (malformed JSON,
// missing fields) before the engine is ever consulted.
func writeValidationError(w http.ResponseWriter, msg string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(Response{
		Success: false,
		Error: &ErrorBody{
			Code:    "BAD_REQUEST",
			Message: msg,
			Details: details,
		},
	})
}
