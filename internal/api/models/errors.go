package models

// Error codes
const (
	// General errors
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Session guard errors
	ErrCodeUserDataMissing = "USER_DATA_MISSING"
	ErrCodeInvalidUserData = "INVALID_USER_DATA"

	// Authentication errors
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Backend errors
	ErrCodeUpstreamError = "UPSTREAM_ERROR"
)
