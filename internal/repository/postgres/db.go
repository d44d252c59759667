package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/ignite/newsletter/internal/config"
)

// Open prepares a connection pool for cfg. Connections are made lazily, so
// the server can start while the database is still down; the DSN carries
// connect_timeout so each dial fails fast instead of stalling a request.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
