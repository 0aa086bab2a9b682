package auth

import "errors"

// Failure kinds reported by the session guard.
var (
	ErrMissingCredentials = errors.New("not authenticated")
	ErrMissingUserData    = errors.New("user data missing")
	ErrUnauthorizedRole   = errors.New("insufficient permission")
	ErrParseFailure       = errors.New("user data could not be parsed")
)

// ErrInvalidCredentials is returned by an Authenticator for a bad login.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Notification text shown for each guard failure.
const (
	NoticeNotAuthenticated = "You are not authenticated"
	NoticeUserDataMissing  = "User data missing"
	NoticeNoPermission     = "You do not have permission to access this page"
)
