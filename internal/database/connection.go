package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"quickfuel-admin/pkg/config"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a connection pool with the SQL dialect it speaks.
type DB struct {
	*sql.DB
	Driver string
}

// NewConnection creates a new database connection based on configuration
func NewConnection(cfg *config.Config) (*DB, error) {
	var driverName string

	switch cfg.Database.Type {
	case "postgres":
		driverName = "postgres"
	case "sqlite":
		driverName = "sqlite3"
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}

	db, err := Open(driverName, cfg.GetDatabaseDSN())
	if err != nil {
		return nil, err
	}

	// An in-memory sqlite database exists per connection.
	if driverName == "sqlite3" && strings.Contains(cfg.Database.Path, ":memory:") {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	}

	return db, nil
}

// Open opens and pings a database with the given driver.
func Open(driverName, dsn string) (*DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, Driver: driverName}, nil
}

// OpenMemory opens a private in-memory sqlite database with migrations applied.
func OpenMemory() (*DB, error) {
	db, err := Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := RunMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Rebind rewrites ? placeholders into the form the driver expects.
func (db *DB) Rebind(query string) string {
	if db.Driver != "postgres" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
