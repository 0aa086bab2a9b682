package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Security SecurityConfig `mapstructure:"security"`
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLS          TLSConfig     `mapstructure:"tls"`
}

// TLSConfig holds TLS/SSL configuration
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Type         string        `mapstructure:"type"` // postgres, sqlite
	URL          string        `mapstructure:"url"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	Path         string        `mapstructure:"path"`    // For SQLite
	SSLMode      string        `mapstructure:"sslmode"` // For PostgreSQL
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// RedisConfig holds Redis configuration for the session store
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// SessionConfig holds session persistence configuration
type SessionConfig struct {
	Store         string        `mapstructure:"store"` // memory, database, redis
	CookieName    string        `mapstructure:"cookie_name"`
	TTL           time.Duration `mapstructure:"ttl"`
	SecureCookie  bool          `mapstructure:"secure_cookie"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	LoginPath     string        `mapstructure:"login_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	JWTExpiration     time.Duration `mapstructure:"jwt_expiration"`
	PasswordMinLength int           `mapstructure:"password_min_length"`
	BcryptCost        int           `mapstructure:"bcrypt_cost"`
}

// APIConfig holds the remote REST API and rate limit configuration
type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	RateLimit    int           `mapstructure:"rate_limit"` // requests per minute
	BurstLimit   int           `mapstructure:"burst_limit"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// AuthConfig selects how login credentials are checked
type AuthConfig struct {
	Mode string `mapstructure:"mode"` // remote, local
}

// DefaultAPIBaseURL is the conventional address of the QuickFuel backend
const DefaultAPIBaseURL = "http://localhost:8000/api/v1"

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("QUICKFUEL")

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				fmt.Printf("Warning: Config file not found at %s, using defaults\n", configPath)
			} else {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	overrideWithEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./quickfuel.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_lifetime", "5m")

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "quickfuel:session:")

	// Session defaults
	v.SetDefault("session.store", "memory")
	v.SetDefault("session.cookie_name", "qf_session")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("session.purge_interval", "10m")
	v.SetDefault("session.login_path", "/login")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "./logs/app.log")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Security defaults
	v.SetDefault("security.jwt_expiration", "24h")
	v.SetDefault("security.password_min_length", 8)
	v.SetDefault("security.bcrypt_cost", 10)

	// API defaults
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.poll_interval", "10s")
	v.SetDefault("api.rate_limit", 100)
	v.SetDefault("api.burst_limit", 200)
	v.SetDefault("api.cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:8080"})
	v.SetDefault("api.cors.allow_credentials", true)
	v.SetDefault("api.cors.max_age", 86400)

	// Auth defaults
	v.SetDefault("auth.mode", "remote")
}

// overrideWithEnvVars overrides config with specific environment variables
func overrideWithEnvVars(v *viper.Viper) {
	envMappings := map[string]string{
		"API_BASE_URL":   "api.base_url",
		"DATABASE_URL":   "database.url",
		"DB_PASSWORD":    "database.password",
		"DB_USER":        "database.user",
		"JWT_SECRET":     "security.jwt_secret",
		"REDIS_URL":      "redis.addr",
		"REDIS_PASSWORD": "redis.password",
		"SESSION_STORE":  "session.store",
		"AUTH_MODE":      "auth.mode",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.API.BaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	config.API.BaseURL = strings.TrimRight(config.API.BaseURL, "/")

	switch config.Database.Type {
	case "postgres":
		if config.Database.URL == "" && (config.Database.Host == "" || config.Database.User == "") {
			return fmt.Errorf("postgres requires url or host and user")
		}
	case "sqlite":
		if config.Database.Path == "" {
			return fmt.Errorf("sqlite requires path")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}

	switch config.Session.Store {
	case "memory", "database", "redis":
	default:
		return fmt.Errorf("unsupported session store: %s", config.Session.Store)
	}

	if config.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if config.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	if !strings.HasPrefix(config.Session.LoginPath, "/") {
		return fmt.Errorf("session login path must be absolute")
	}

	switch config.Auth.Mode {
	case "remote":
	case "local":
		if config.Security.JWTSecret == "" {
			return fmt.Errorf("JWT secret is required for local auth")
		}
	default:
		return fmt.Errorf("unsupported auth mode: %s", config.Auth.Mode)
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	switch c.Database.Type {
	case "postgres":
		if c.Database.URL != "" {
			return c.Database.URL
		}
		sslMode := c.Database.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Database.Host, c.Database.Port, c.Database.User,
			c.Database.Password, c.Database.DBName, sslMode)
	case "sqlite":
		return c.Database.Path
	default:
		return ""
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Mode == "debug" || c.Server.Mode == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Mode == "release" || c.Server.Mode == "production"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// SanitizeForLogging returns a copy of the config with sensitive data redacted
func (c *Config) SanitizeForLogging() *Config {
	sanitized := *c

	if sanitized.Database.Password != "" {
		sanitized.Database.Password = "[REDACTED]"
	}

	if sanitized.Database.URL != "" {
		sanitized.Database.URL = "[REDACTED]"
	}

	if sanitized.Security.JWTSecret != "" {
		sanitized.Security.JWTSecret = "[REDACTED]"
	}

	if sanitized.Redis.Password != "" {
		sanitized.Redis.Password = "[REDACTED]"
	}

	return &sanitized
}
