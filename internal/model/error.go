package model

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeInvalidID       = "INVALID_ID"
	ErrCodeMissingField    = "MISSING_FIELD"
	ErrCodeProductNotFound = "PRODUCT_NOT_FOUND"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidJSON     = NewDomainError(ErrCodeInvalidJSON, "Invalid request body")
	ErrInvalidID       = NewDomainError(ErrCodeInvalidID, "Invalid product id")
	ErrMissingField    = NewDomainError(ErrCodeMissingField, "All fields are required")
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrRouteNotFound   = NewDomainError(ErrCodeRouteNotFound, "Route not found")
	ErrInternal        = NewDomainError(ErrCodeInternalError, "Internal Server Error")
)
