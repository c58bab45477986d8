package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// WriteJSON writes v as a JSON response
func WriteJSON(w http.ResponseWriter, logger *zap.Logger, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorType, message string) {
	WriteJSON(w, logger, statusCode, map[string]string{
		"error":   errorType,
		"message": message,
	})
}
