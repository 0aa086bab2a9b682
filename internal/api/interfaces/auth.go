package interfaces

import (
	"context"

	"quickfuel-admin/internal/backend"
)

// Backend is the remote QuickFuel API as used by pages and the order feed.
type Backend interface {
	BaseURL() string
	ListStations(ctx context.Context, token string) ([]backend.Station, error)
	ListOrders(ctx context.Context, token string) ([]backend.Order, error)
	ListUsers(ctx context.Context, token string) ([]backend.User, error)
}

// HealthChecker is implemented by dependencies that can be probed.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
