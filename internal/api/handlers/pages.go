package handlers

import (
	"net/http"
	"sync"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/api/middlewares"
	"quickfuel-admin/internal/api/models"
	"quickfuel-admin/internal/backend"

	"github.com/gin-gonic/gin"
)

// HomePage renders the public landing page
func HomePage(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderPage(c, http.StatusOK, "home.html", gin.H{"Title": "QuickFuel"})
	}
}

// AboutPage renders the public about page
func AboutPage(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderPage(c, http.StatusOK, "about.html", gin.H{
			"Title":  "About",
			"APIURL": services.Backend().BaseURL(),
		})
	}
}

// AccountPage renders the signed in user's profile
func AccountPage(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middlewares.CurrentUser(c)
		fields := make([]gin.H, 0)
		for _, key := range user.Keys() {
			fields = append(fields, gin.H{"Key": key, "Value": user.String(key)})
		}
		renderPage(c, http.StatusOK, "account.html", gin.H{
			"Title":  "My account",
			"Fields": fields,
		})
	}
}

// AdminDashboard renders summary counts for stations, orders and users
func AdminDashboard(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := timeoutContext(c, services)
		defer cancel()
		token := middlewares.AccessToken(c)
		api := services.Backend()

		var (
			wg                         sync.WaitGroup
			stations                   []backend.Station
			orders                     []backend.Order
			users                      []backend.User
			stationErr, orderErr, uErr error
		)
		wg.Add(3)
		go func() { defer wg.Done(); stations, stationErr = api.ListStations(ctx, token) }()
		go func() { defer wg.Done(); orders, orderErr = api.ListOrders(ctx, token) }()
		go func() { defer wg.Done(); users, uErr = api.ListUsers(ctx, token) }()
		wg.Wait()

		var errs []string
		if stationErr != nil {
			errs = append(errs, fetchError(stationErr, "stations"))
		}
		if orderErr != nil {
			errs = append(errs, fetchError(orderErr, "orders"))
		}
		if uErr != nil {
			errs = append(errs, fetchError(uErr, "users"))
		}
		if len(errs) > 0 {
			services.GetLogger().WithComponent("dashboard").Warning("Dashboard loaded with %d fetch errors", len(errs))
		}

		renderPage(c, http.StatusOK, "admin_dashboard.html", gin.H{
			"Title":        "Dashboard",
			"StationCount": len(stations),
			"OrderCount":   len(orders),
			"UserCount":    len(users),
			"OrderStatus":  backend.CountByStatus(orders),
			"Errors":       errs,
		})
	}
}

// StationsPage lists fuel stations
func StationsPage(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := timeoutContext(c, services)
		defer cancel()

		data := gin.H{"Title": "Stations"}
		stations, err := services.Backend().ListStations(ctx, middlewares.AccessToken(c))
		if err != nil {
			services.GetLogger().Warning("Failed to list stations: %v", err)
			data["Error"] = fetchError(err, "stations")
		}
		data["Stations"] = stations
		renderPage(c, http.StatusOK, "stations.html", data)
	}
}

// OrdersPage lists fuel delivery orders
func OrdersPage(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := timeoutContext(c, services)
		defer cancel()

		data := gin.H{"Title": "Orders"}
		orders, err := services.Backend().ListOrders(ctx, middlewares.AccessToken(c))
		if err != nil {
			services.GetLogger().Warning("Failed to list orders: %v", err)
			data["Error"] = fetchError(err, "orders")
		}
		data["Orders"] = orders
		data["OrderStatus"] = backend.CountByStatus(orders)
		renderPage(c, http.StatusOK, "orders.html", data)
	}
}

// UsersPage lists app users
func UsersPage(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := timeoutContext(c, services)
		defer cancel()

		data := gin.H{"Title": "Users"}
		users, err := services.Backend().ListUsers(ctx, middlewares.AccessToken(c))
		if err != nil {
			services.GetLogger().Warning("Failed to list users: %v", err)
			data["Error"] = fetchError(err, "users")
		}
		data["Users"] = users
		renderPage(c, http.StatusOK, "users.html", data)
	}
}

// NotFoundPage renders the error template for unknown routes
func NotFoundPage(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if middlewares.WantsJSON(c) {
			c.JSON(http.StatusNotFound, models.Failure(models.ErrCodeNotFound, "Route not found"))
			return
		}
		renderPage(c, http.StatusNotFound, "error.html", gin.H{
			"Title":   "Not found",
			"Message": "The page you were looking for does not exist.",
		})
	}
}
