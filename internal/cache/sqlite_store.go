package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteStore is the default durable structured store, backed by the
// local cache database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a store over an already-migrated database
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Read fetches the payload for a key
func (s *SQLiteStore) Read(ctx context.Context, namespace, key string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM artifacts WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Write upserts the payload for a key (last-write-wins)
func (s *SQLiteStore) Write(ctx context.Context, namespace, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (namespace, key, payload, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		namespace, key, payload, time.Now().UnixMilli(),
	)
	return err
}

// Delete removes the entry for a key
func (s *SQLiteStore) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM artifacts WHERE namespace = ? AND key = ?`,
		namespace, key,
	)
	return err
}
