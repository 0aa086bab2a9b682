package api

import (
	"fmt"

	"quickfuel-admin/internal/api/handlers"
	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/api/middlewares"
	"quickfuel-admin/internal/auth"
	"quickfuel-admin/web"

	"github.com/gin-gonic/gin"
)

// Role sets for guarded routes.
var (
	accountRoles = auth.Roles(auth.RoleAdmin, auth.RoleUser)
	adminRoles   = auth.Roles(auth.RoleAdmin)
)

// SetupRoutes configures all routes with proper middleware
func SetupRoutes(router *gin.Engine, services interfaces.Services) error {
	templates, err := web.ParseTemplates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	router.SetHTMLTemplate(templates)

	cfg := services.GetConfig()

	// Global middleware
	router.Use(middlewares.RequestLogging(services.GetLogger()))
	router.Use(middlewares.Recovery(services.GetLogger()))
	router.Use(middlewares.CORS(cfg.API.CORS))
	router.Use(middlewares.Security())
	router.Use(middlewares.RateLimit(cfg.API.RateLimit, cfg.API.BurstLimit))

	// Health check (no auth required)
	router.GET("/health", handlers.HealthCheck(services))
	router.GET("/ping", handlers.Ping())

	setupPublicRoutes(router, services)
	setupAccountRoutes(router, services)
	setupAdminRoutes(router, services)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/session", middlewares.SessionGuard(services, auth.AnyRole), handlers.GetSession(services))

		admin := v1.Group("/admin")
		admin.Use(middlewares.SessionGuard(services, adminRoles))
		{
			admin.GET("/stations", handlers.ListStations(services))
			admin.GET("/orders", handlers.ListOrders(services))
			admin.GET("/audit-logs", handlers.GetAuditLogs(services))
		}
	}

	router.NoRoute(handlers.NotFoundPage(services))
	return nil
}

// setupPublicRoutes configures pages that don't require a session
func setupPublicRoutes(router *gin.Engine, services interfaces.Services) {
	router.GET("/", handlers.HomePage(services))
	router.GET("/about", handlers.AboutPage(services))
	router.GET("/login", handlers.LoginPage(services))
	router.POST("/login", handlers.Login(services))
	router.POST("/logout", handlers.Logout(services))
}

// setupAccountRoutes configures pages open to every known role
func setupAccountRoutes(router *gin.Engine, services interfaces.Services) {
	router.GET("/account", middlewares.SessionGuard(services, accountRoles), handlers.AccountPage(services))
}

// setupAdminRoutes configures admin-only pages and the live order feed
func setupAdminRoutes(router *gin.Engine, services interfaces.Services) {
	admin := router.Group("/admin")
	admin.Use(middlewares.SessionGuard(services, adminRoles))
	{
		admin.GET("", handlers.AdminDashboard(services))
		admin.GET("/stations", handlers.StationsPage(services))
		admin.GET("/orders", handlers.OrdersPage(services))
		admin.GET("/users", handlers.UsersPage(services))
		admin.GET("/ws/orders", handlers.OrdersFeed(services))
	}
}
