package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DefaultQueryTimeout is applied to individual queries so runaway SQL
// cannot hold a connection indefinitely.
const DefaultQueryTimeout = 30 * time.Second

type DB struct {
	*sql.DB
}

type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func New(cfg Config) (*DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// EnsureSchema creates the decision-history table if it does not exist.
// The schema is a single append-only table, so full migration machinery
// is not needed.
func (db *DB) EnsureSchema() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS control_decisions (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL,
			horizon TEXT NOT NULL,
			cycle BIGINT NOT NULL,
			state_before TEXT NOT NULL,
			state_after TEXT NOT NULL,
			damping_time DOUBLE PRECISION NOT NULL,
			control_error DOUBLE PRECISION NOT NULL,
			has_suggested_time_scale BOOLEAN NOT NULL,
			suggested_time_scale DOUBLE PRECISION NOT NULL,
			discontinuous_change_occurred BOOLEAN NOT NULL,
			diagnostics TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (run_id, horizon, cycle)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure control_decisions schema: %w", err)
	}
	return nil
}
