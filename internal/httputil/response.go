// Package httputil provides JSON response helpers for the summary API
// envelope.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asc0ltato/summary-api/internal/models"
)

// WriteJSON writes a JSON response with the given status code and body.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// WriteSuccess writes a success envelope with the given data and message.
func WriteSuccess(w http.ResponseWriter, status int, data any, message string) {
	WriteJSON(w, status, models.APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, status int, message, errMsg string) {
	WriteJSON(w, status, models.APIResponse{
		Success: false,
		Message: message,
		Error:   errMsg,
	})
}
