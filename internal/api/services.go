package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quickfuel-admin/internal/api/interfaces"
	"quickfuel-admin/internal/auth"
	"quickfuel-admin/internal/backend"
	"quickfuel-admin/internal/database"
	"quickfuel-admin/internal/database/repositories"
	"quickfuel-admin/internal/session"
	"quickfuel-admin/internal/session/redisstore"
	"quickfuel-admin/pkg/config"
	"quickfuel-admin/pkg/logger"
)

// Services contains all the dependencies for API handlers
type Services struct {
	// Core dependencies
	DB     *database.DB
	Logger *logger.Logger
	Config *config.Config

	store          session.Store
	sessionManager *session.Manager
	guard          *auth.Guard
	authenticator  auth.Authenticator
	backend        *backend.Client
	healthChecks   map[string]interfaces.HealthChecker

	// Repositories
	auditLogRepository *repositories.AuditLogRepository
	userRepository     *repositories.UserRepository

	stopOnce sync.Once
	stop     chan struct{}
}

var _ interfaces.Services = (*Services)(nil)

// NewServices creates a new services container
func NewServices(db *database.DB, log *logger.Logger, cfg *config.Config) (*Services, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	services := &Services{
		DB:           db,
		Logger:       log,
		Config:       cfg,
		backend:      backend.NewClientFromConfig(cfg.API),
		healthChecks: map[string]interfaces.HealthChecker{"database": pingFunc(db.PingContext)},
		stop:         make(chan struct{}),
	}

	// Initialize repositories
	services.auditLogRepository = repositories.NewAuditLogRepository(db)
	services.userRepository = repositories.NewUserRepository(db)

	if err := services.initSessionStore(); err != nil {
		return nil, err
	}
	services.sessionManager = session.NewManager(services.store, cfg.Session, log)
	services.guard = auth.NewGuard(cfg.Session.LoginPath, log)

	switch cfg.Auth.Mode {
	case "local":
		local, err := auth.NewLocalAuthenticator(services.userRepository, cfg.Security)
		if err != nil {
			return nil, err
		}
		services.authenticator = local
	default:
		services.authenticator = auth.NewRemoteAuthenticator(services.backend)
	}

	log.WithFields(map[string]interface{}{
		"session_store": cfg.Session.Store,
		"auth_mode":     cfg.Auth.Mode,
		"api_base_url":  services.backend.BaseURL(),
	}).Info("Services initialized")

	return services, nil
}

func (s *Services) initSessionStore() error {
	switch s.Config.Session.Store {
	case "redis":
		store, err := redisstore.New(redisstore.Config{
			Client:    redisstore.NewClient(s.Config.Redis),
			KeyPrefix: s.Config.Redis.KeyPrefix,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis session store: %w", err)
		}
		s.store = store
		s.healthChecks["redis"] = store
	case "database":
		repo := repositories.NewSessionRepository(s.DB)
		s.store = repo
		if interval := s.Config.Session.PurgeInterval; interval > 0 {
			go s.purgeSessions(repo, interval)
		}
	default:
		s.store = session.NewMemoryStore(s.Config.Session.PurgeInterval)
	}
	return nil
}

func (s *Services) purgeSessions(repo *repositories.SessionRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			n, err := repo.Purge(context.Background())
			if err != nil {
				s.Logger.Error("Session purge failed: %v", err)
				continue
			}
			if n > 0 {
				s.Logger.Debug("Purged %d expired sessions", n)
			}
		}
	}
}

// Stop releases background workers and the session store.
func (s *Services) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		if closer, ok := s.store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.Logger.Warning("Failed to close session store: %v", err)
			}
		}
	})
}

// GetLogger implements interfaces.Services
func (s *Services) GetLogger() *logger.Logger {
	return s.Logger
}

// GetConfig implements interfaces.Services
func (s *Services) GetConfig() *config.Config {
	return s.Config
}

// SessionManager implements interfaces.Services
func (s *Services) SessionManager() *session.Manager {
	return s.sessionManager
}

// Guard implements interfaces.Services
func (s *Services) Guard() *auth.Guard {
	return s.guard
}

// Authenticator implements interfaces.Services
func (s *Services) Authenticator() auth.Authenticator {
	return s.authenticator
}

// Backend implements interfaces.Services
func (s *Services) Backend() interfaces.Backend {
	return s.backend
}

// AuditLog implements interfaces.Services
func (s *Services) AuditLog() interfaces.AuditRecorder {
	return s.auditLogRepository
}

// HealthChecks implements interfaces.Services
func (s *Services) HealthChecks() map[string]interfaces.HealthChecker {
	return s.healthChecks
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}
