package utils

import "github.com/gofiber/fiber/v2"

// APIError represents a structured API error
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string, status int) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Common API Errors. Missing and invalid credentials share one outward
// error so a caller cannot tell which verification step failed.
var (
	ErrInternalServer   = NewAPIError("INTERNAL_SERVER_ERROR", "An unexpected error occurred", fiber.StatusInternalServerError)
	ErrBadRequest       = NewAPIError("BAD_REQUEST", "Invalid request", fiber.StatusBadRequest)
	ErrUnauthenticated  = NewAPIError("UNAUTHENTICATED", "Please sign in again", fiber.StatusUnauthorized)
	ErrForbidden        = NewAPIError("FORBIDDEN", "You do not have permission to access this resource", fiber.StatusForbidden)
	ErrNoActiveRun      = NewAPIError("NO_ACTIVE_RUN", "No active training run; start training first", fiber.StatusNotFound)
	ErrStoreUnavailable = NewAPIError("STORE_UNAVAILABLE", "Temporary storage failure, please retry", fiber.StatusServiceUnavailable)
)
