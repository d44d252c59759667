package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/ignite/newsletter/internal/pkg/logger"
)

// ErrorResponse is the error envelope for JSON endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes data as JSON with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Default().Warn("JSON encode failed", "error", err.Error())
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Empty writes status with no body.
func Empty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// Error writes a JSON error response. Use for client errors (4xx).
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// InternalError logs err and writes an empty 500. The cause never reaches
// the client.
func InternalError(w http.ResponseWriter, log *logger.Logger, err error) {
	log.Error("Internal error", "error", err.Error())
	Empty(w, http.StatusInternalServerError)
}
