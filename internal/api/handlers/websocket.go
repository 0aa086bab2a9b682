package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/api/middlewares"
	"quickfuel-admin/internal/api/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

func newUpgrader(services interfaces.Services) websocket.Upgrader {
	allowed := services.GetConfig().API.CORS.AllowedOrigins
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
				return true
			}
			for _, o := range allowed {
				if o == "*" || o == origin {
					return true
				}
			}
			return false
		},
	}
}

// OrdersFeed pushes an order snapshot to the client every poll interval
func OrdersFeed(services interfaces.Services) gin.HandlerFunc {
	upgrader := newUpgrader(services)

	return func(c *gin.Context) {
		log := services.GetLogger().WithComponent("orders_feed")
		token := middlewares.AccessToken(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error("WebSocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		clientIP := getClientIP(c)
		log.Info("WebSocket connection established - client_ip: %s", clientIP)

		interval := services.GetConfig().API.PollInterval
		if interval <= 0 {
			interval = 10 * time.Second
		}

		done := make(chan struct{})
		go readPump(conn, done)

		poll := time.NewTicker(interval)
		defer poll.Stop()
		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()

		send := func() bool {
			msg := ordersMessage(c.Request.Context(), services, token)
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Warning("WebSocket write failed: %v", err)
				return false
			}
			return true
		}

		if !send() {
			return
		}
		for {
			select {
			case <-poll.C:
				if !send() {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-done:
				log.Info("WebSocket client disconnected - client_ip: %s", clientIP)
				return
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}

func ordersMessage(parent context.Context, services interfaces.Services, token string) models.WebSocketMessage {
	timeout := services.GetConfig().API.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	orders, err := services.Backend().ListOrders(ctx, token)
	if err != nil {
		return models.WebSocketMessage{
			Type:      "error",
			Error:     fetchError(err, "orders"),
			Timestamp: time.Now().Unix(),
		}
	}
	return models.WebSocketMessage{
		Type:      "orders_snapshot",
		Data:      ordersSnapshot(orders),
		Timestamp: time.Now().Unix(),
	}
}

// readPump drains client frames so control messages are processed, and
// closes done once the connection fails.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
