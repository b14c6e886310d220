package json

import (
	"encoding/json"
	"net/http"

	"github.com/eggsplain/eggsplain-front/internal/log"
)

// ErrorResponse is the error envelope returned by every API handler
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// WriteResponse writes a JSON response with the given status code
func WriteResponse(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.LogError("Failed to encode JSON response: %v", err)
		return err
	}
	return nil
}

// Write writes a JSON response with 200 OK status
func Write(w http.ResponseWriter, data any) error {
	return WriteResponse(w, http.StatusOK, data)
}

// WriteError writes a JSON error envelope
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteErrorResponse(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorResponse writes a fully populated error envelope
func WriteErrorResponse(w http.ResponseWriter, statusCode int, response ErrorResponse) {
	if err := WriteResponse(w, statusCode, response); err != nil {
		// Fallback to plain text error if JSON encoding fails
		http.Error(w, response.Error, statusCode)
	}
}

// WriteErrorCode writes an error envelope carrying a machine-readable code
func WriteErrorCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteErrorResponse(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// Common error responses
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

func WriteInternalServerError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

func WriteServiceUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, message)
}

func WriteBadGateway(w http.ResponseWriter, message string, details string) {
	WriteErrorResponse(w, http.StatusBadGateway, ErrorResponse{Error: message, Details: details})
}

func WriteGatewayTimeout(w http.ResponseWriter, message string, details string) {
	WriteErrorResponse(w, http.StatusGatewayTimeout, ErrorResponse{Error: message, Details: details})
}
