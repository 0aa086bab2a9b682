package handlers

import (
	"net/http"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/api/middlewares"
	"quickfuel-admin/internal/api/models"
	"quickfuel-admin/internal/auth"
	"quickfuel-admin/internal/backend"

	"github.com/gin-gonic/gin"
)

// GetSession reports the guard outcome for the current session
func GetSession(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middlewares.CurrentUser(c)
		state := auth.StateAuthorized
		if value, ok := c.Get(middlewares.ContextGuardResult); ok {
			if result, ok := value.(auth.Result); ok {
				state = result.State
			}
		}

		c.JSON(http.StatusOK, models.Success(models.SessionResponse{
			State:   state.String(),
			Loading: false,
			Role:    user.Role,
			User:    user,
		}))
	}
}

// ListStations proxies the backend station list
func ListStations(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := timeoutContext(c, services)
		defer cancel()

		stations, err := services.Backend().ListStations(ctx, middlewares.AccessToken(c))
		if err != nil {
			upstreamFailure(c, services, err, "stations")
			return
		}
		if stations == nil {
			stations = []backend.Station{}
		}
		c.JSON(http.StatusOK, models.Success(models.ListResponse{Items: stations, Count: len(stations)}))
	}
}

// ListOrders proxies the backend order list with per status counts
func ListOrders(services interfaces.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := timeoutContext(c, services)
		defer cancel()

		orders, err := services.Backend().ListOrders(ctx, middlewares.AccessToken(c))
		if err != nil {
			upstreamFailure(c, services, err, "orders")
			return
		}
		c.JSON(http.StatusOK, models.Success(ordersSnapshot(orders)))
	}
}

func ordersSnapshot(orders []backend.Order) models.ListResponse {
	if orders == nil {
		orders = []backend.Order{}
	}
	return models.ListResponse{
		Items: orders,
		Count: len(orders),
		ByKey: backend.CountByStatus(orders),
	}
}

func upstreamFailure(c *gin.Context, services interfaces.Services, err error, what string) {
	services.GetLogger().WithFields(map[string]interface{}{
		"resource": what,
		"error":    err.Error(),
	}).Warning("Backend request failed")

	resp := models.Failure(models.ErrCodeUpstreamError, fetchError(err, what))
	resp.RequestID = c.GetString("request_id")
	c.JSON(http.StatusBadGateway, resp)
}
