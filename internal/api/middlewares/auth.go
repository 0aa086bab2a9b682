package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/api/models"
	"quickfuel-admin/internal/auth"
	"quickfuel-admin/internal/session"
	"quickfuel-admin/internal/web/flash"

	"github.com/gin-gonic/gin"
)

// Context keys set by SessionGuard.
const (
	ContextUser        = "user"
	ContextUserRole    = "user_role"
	ContextUserID      = "user_id"
	ContextAccessToken = "access_token"
	ContextGuardResult = "guard_result"
)

// SessionGuard admits requests whose session holds a user with one of the
// allowed roles. Pass auth.AnyRole to admit every signed-in user.
func SessionGuard(services interfaces.Services, allowed auth.RoleSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := services.SessionManager().Load(c.Request.Context(), c.Request)
		result := services.Guard().Check(provider, allowed)

		if !result.Authorized() {
			denyRequest(c, result)
			return
		}

		token, _ := provider.Lookup(session.KeyAccessToken)
		c.Set(ContextUser, result.User)
		c.Set(ContextUserRole, result.User.Role)
		c.Set(ContextUserID, result.User.ID())
		c.Set(ContextAccessToken, token)
		c.Set(ContextGuardResult, result)

		c.Next()
	}
}

func denyRequest(c *gin.Context, result auth.Result) {
	if WantsJSON(c) {
		status, code := http.StatusUnauthorized, models.ErrCodeUnauthorized
		switch {
		case errors.Is(result.Err, auth.ErrUnauthorizedRole):
			status, code = http.StatusForbidden, models.ErrCodeForbidden
		case errors.Is(result.Err, auth.ErrParseFailure):
			code = models.ErrCodeInvalidUserData
		case errors.Is(result.Err, auth.ErrMissingUserData):
			code = models.ErrCodeUserDataMissing
		}
		resp := models.Failure(code, result.Notice)
		resp.Redirect = result.Redirect
		resp.RequestID = c.GetString("request_id")
		c.AbortWithStatusJSON(status, resp)
		return
	}

	flash.Write(c.Writer, c.Request, flash.Error(result.Notice))
	c.Redirect(http.StatusSeeOther, result.Redirect)
	c.Abort()
}

// WantsJSON reports whether the client expects a JSON answer rather than a page.
func WantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// CurrentUser returns the user admitted by SessionGuard.
func CurrentUser(c *gin.Context) (*auth.User, bool) {
	value, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := value.(*auth.User)
	return user, ok && user != nil
}

// AccessToken returns the access token of the admitted session.
func AccessToken(c *gin.Context) string {
	return c.GetString(ContextAccessToken)
}
