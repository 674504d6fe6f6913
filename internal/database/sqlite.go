package database

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

// SQLite wraps the on-device cache database
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the local cache database and
// applies pending migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single writer; the cache is local-device state, not a shared server.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// DB returns the underlying database handle
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Ping checks the database connection
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}
