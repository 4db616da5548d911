package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"oddsledger/internal/auth"
	"oddsledger/internal/engine"
	"oddsledger/internal/forecast"
	"oddsledger/internal/ocr"

	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type valuesResponse struct {
	Success bool     `json:"success"`
	Values  []string `json:"values"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Message: message})
}

// writeFailure maps err onto a status code. Infrastructure errors are logged
// and reported without their internals.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", requestID(r.Context())).Msg("Request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, forecast.ErrUnknownMode):
		return http.StatusBadRequest
	case isClientError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func isClientError(err error) bool {
	return engine.IsClientError(err) || errors.Is(err, ocr.ErrEmptyImage) || errors.Is(err, errBadRequest)
}
