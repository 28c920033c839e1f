package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Response is the envelope every API endpoint returns.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

// Success sends a 200 response carrying data.
func Success(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Error sends an error response with the HTTP status as the code.
func Error(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, Response{Code: code, Message: message})
}

// BadRequest sends a 400 bad request response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// NotFound sends a 404 not found response.
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// Loading sends a 503 while the catalog has no snapshot yet.
func Loading(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "5")
	Error(w, http.StatusServiceUnavailable, "loading")
}

// InternalError sends a 500 internal server error response.
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, message)
}
