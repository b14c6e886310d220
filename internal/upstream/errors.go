package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotConfigured is returned before any network call when the admin API
// key is absent or still a placeholder.
var ErrNotConfigured = errors.New("Admin API key is not configured")

// Machine-readable error codes mapped from upstream status codes
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeServerError        = "SERVER_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeUnreachable        = "UNREACHABLE"
	CodeUnknown            = "UNKNOWN_ERROR"
)

// APIError describes a non-2xx response or transport failure from the
// eggsplain backend.
type APIError struct {
	Code    string
	Message string
	Details string
	Status  int
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound reports whether err is an upstream 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeNotFound
}

// IsUnreachable reports whether err is a transport-level failure
func IsUnreachable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeUnreachable
}

// IsAuthError reports whether upstream rejected the admin credential
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Code == CodeUnauthorized || apiErr.Code == CodeForbidden)
}

func errorFromStatus(status int, details string) *APIError {
	switch status {
	case http.StatusUnauthorized:
		return &APIError{CodeUnauthorized, "Invalid API credentials. Check your Admin API key.", details, status}
	case http.StatusForbidden:
		return &APIError{CodeForbidden, "Access denied. Your API key may not have sufficient permissions.", details, status}
	case http.StatusNotFound:
		return &APIError{CodeNotFound, "Resource not found", details, status}
	case http.StatusConflict:
		return &APIError{CodeConflict, "Resource already exists", details, status}
	case http.StatusUnprocessableEntity:
		return &APIError{CodeValidationError, "Invalid data provided", details, status}
	case http.StatusTooManyRequests:
		return &APIError{CodeRateLimited, "Too many requests. Please try again later.", details, status}
	case http.StatusInternalServerError:
		return &APIError{CodeServerError, "Eggsplain API server error. Please try again later.", details, status}
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &APIError{CodeServiceUnavailable, "Eggsplain API is temporarily unavailable. Please try again later.", details, status}
	default:
		return &APIError{CodeUnknown, fmt.Sprintf("API request failed with status %d", status), details, status}
	}
}
