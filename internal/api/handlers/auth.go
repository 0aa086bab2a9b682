package handlers

import (
	"errors"
	"net/http"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/auth"
	"quickfuel-admin/internal/session"
	"quickfuel-admin/internal/web/flash"
	"quickfuel-admin/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Landing routes after login.
const (
	AdminHomePath   = "/admin"
	AccountHomePath = "/account"
)

// LoginPage renders the sign in form
func LoginPage(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderPage(c, http.StatusOK, "login.html", gin.H{
			"Title": "Sign in",
			"Email": c.Query("email"),
		})
	}
}

// Login authenticates the submitted form and starts a session
func Login(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLoggerFromContext(c, services.GetLogger())
		loginPath := services.Guard().LoginPath()
		email := c.PostForm("email")
		password := c.PostForm("password")

		creds, err := services.Authenticator().Authenticate(c.Request.Context(), email, password)
		if err != nil {
			message := "Login failed. Please try again later."
			if errors.Is(err, auth.ErrInvalidCredentials) {
				message = "Invalid email or password"
				log.SecurityLogger("login_failed", email, err.Error())
			} else {
				log.Error("Login error for %s: %v", email, err)
			}
			createAuditLog(c, services, "login_failed", email, err.Error())
			flash.Write(c.Writer, c.Request, flash.Error(message))
			c.Redirect(http.StatusSeeOther, loginPath)
			return
		}

		_, err = services.SessionManager().Create(c.Request.Context(), c.Writer, c.Request, session.Tokens{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
		}, creds.UserDetails)
		if err != nil {
			log.Error("Failed to create session: %v", err)
			flash.Write(c.Writer, c.Request, flash.Error("Could not start your session. Please try again."))
			c.Redirect(http.StatusSeeOther, loginPath)
			return
		}

		userID := creds.User.ID()
		if userID == "" {
			userID = creds.User.Email()
		}
		createAuditLog(c, services, "login", userID, "role="+creds.User.Role)

		flash.Write(c.Writer, c.Request, flash.Success("Welcome back, "+displayName(creds.User)))
		if creds.User.Role == auth.RoleAdmin {
			c.Redirect(http.StatusSeeOther, AdminHomePath)
			return
		}
		c.Redirect(http.StatusSeeOther, AccountHomePath)
	}
}

// Logout ends the current session
func Logout(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLoggerFromContext(c, services.GetLogger())
		manager := services.SessionManager()

		userID := ""
		if record, err := manager.Current(c.Request.Context(), c.Request); err == nil && record != nil {
			if user, err := auth.ParseUser(record.UserDetails); err == nil {
				userID = user.ID()
			}
		}

		if err := manager.Destroy(c.Request.Context(), c.Writer, c.Request); err != nil {
			log.Error("Failed to destroy session: %v", err)
		}
		if userID != "" {
			createAuditLog(c, services, "logout", userID, "")
		}

		flash.Write(c.Writer, c.Request, flash.Info("You have been signed out"))
		c.Redirect(http.StatusSeeOther, services.Guard().LoginPath())
	}
}

func displayName(user *auth.User) string {
	if name := user.Name(); name != "" {
		return name
	}
	return user.Role
}
