package utils

import (
	"encoding/json"
	"net/http"

	"interview/internal/models"
)

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a machine-readable error body with a stable code.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, models.ErrorResponse{Code: code, Message: message})
}
