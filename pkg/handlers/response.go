// Package handlers exposes the service's HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gradeline-systems/codebook-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteServiceError maps a service-layer error to an HTTP error response.
// Unrecognized errors become a 500 with the given fallback code.
func WriteServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallbackCode string) {
	statusCode := http.StatusInternalServerError
	errorCode := fallbackCode

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		errorCode = "not_found"
	case errors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		errorCode = "conflict"
	case errors.Is(err, apperrors.ErrInvalidCodebookType):
		statusCode = http.StatusBadRequest
		errorCode = "invalid_codebook_type"
	}

	if writeErr := ErrorResponse(w, statusCode, errorCode, err.Error()); writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
