// Package auth implements the session guard that gates protected pages, the
// validated user model it produces, and the login authenticators.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"quickfuel-admin/internal/session"
	"quickfuel-admin/pkg/logger"
)

// DefaultLoginPath is where failed checks send the user.
const DefaultLoginPath = "/login"

// State is the guard state for one page view.
type State int

const (
	// StateLoading is the state before the check has run.
	StateLoading State = iota
	// StateAuthorized means the user may view the page.
	StateAuthorized
	// StateRedirecting means the user is being sent to the login route.
	StateRedirecting
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthorized:
		return "authorized"
	case StateRedirecting:
		return "redirecting"
	default:
		return "unknown"
	}
}

// Result is the outcome of a guard check.
type Result struct {
	State    State
	User     *User
	Loading  bool
	Redirect string
	Notice   string
	Err      error
}

// Pending returns the initial result, before any check has run.
func Pending() Result {
	return Result{State: StateLoading, Loading: true}
}

// Authorized reports whether the check admitted the user.
func (r Result) Authorized() bool {
	return r.State == StateAuthorized
}

// Guard validates stored session values against a page's allowed roles.
type Guard struct {
	loginPath string
	log       *logger.Logger
}

// NewGuard creates a guard that redirects failures to loginPath.
func NewGuard(loginPath string, log *logger.Logger) *Guard {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return &Guard{
		loginPath: loginPath,
		log:       log.WithComponent("session_guard"),
	}
}

// LoginPath returns the redirect target for failed checks.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Check runs the guard once against the session values in p. It only reads
// from p and never fails outright: every failure is reported as a
// redirecting Result carrying the notice to show.
func (g *Guard) Check(p session.Provider, allowed RoleSet) Result {
	if p == nil {
		p = session.Empty
	}

	token, hasToken := p.Lookup(session.KeyAccessToken)
	details, hasDetails := p.Lookup(session.KeyUserDetails)
	if !hasToken || token == "" || !hasDetails || details == "" {
		return g.deny(ErrMissingCredentials, NoticeNotAuthenticated, "", "")
	}

	user, err := ParseUser(details)
	if err != nil {
		return g.deny(err, NoticeUserDataMissing, "", err.Error())
	}

	if !allowed.Allows(user.Role) {
		return g.deny(ErrUnauthorizedRole, NoticeNoPermission, user.ID(),
			fmt.Sprintf("role %s not in [%s]", user.Role, strings.Join(allowed.List(), ",")))
	}

	return Result{
		State:   StateAuthorized,
		User:    user,
		Loading: false,
	}
}

func (g *Guard) deny(err error, notice, userID, details string) Result {
	if details == "" {
		details = err.Error()
	}
	g.log.SecurityLogger(eventName(err), userID, details)

	return Result{
		State:    StateRedirecting,
		Loading:  false,
		Redirect: g.loginPath,
		Notice:   notice,
		Err:      err,
	}
}

func eventName(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "guard_missing_credentials"
	case errors.Is(err, ErrParseFailure):
		return "guard_parse_failure"
	case errors.Is(err, ErrMissingUserData):
		return "guard_missing_user_data"
	case errors.Is(err, ErrUnauthorizedRole):
		return "guard_unauthorized_role"
	default:
		return "guard_denied"
	}
}
