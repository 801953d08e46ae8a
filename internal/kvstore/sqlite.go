package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store on a single SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the store database under dataDir.
func NewSQLite(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sentinela.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, path: dbPath}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the kv table.
func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		stored_at DATETIME NOT NULL,
		PRIMARY KEY (namespace, key)
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

// Get retrieves the value stored under (ns, key).
func (s *SQLiteStore) Get(ctx context.Context, ns Namespace, key string) ([]byte, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE namespace = ? AND key = ?", string(ns), key)

	var value []byte
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s/%s: %w", ns, key, err)
	}
	return value, nil
}

// Set stores value under (ns, key), replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, ns Namespace, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (namespace, key, value, stored_at) VALUES (?, ?, ?, ?)",
		string(ns), key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write key %s/%s: %w", ns, key, err)
	}
	return nil
}

// Delete removes (ns, key). Deleting a missing key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, ns Namespace, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM kv WHERE namespace = ? AND key = ?", string(ns), key)
	if err != nil {
		return fmt.Errorf("failed to delete key %s/%s: %w", ns, key, err)
	}
	return nil
}

// List returns all key/value pairs in a namespace.
func (s *SQLiteStore) List(ctx context.Context, ns Namespace) (map[string][]byte, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM kv WHERE namespace = ?", string(ns))
	if err != nil {
		return nil, fmt.Errorf("failed to list namespace %s: %w", ns, err)
	}
	defer rows.Close()

	result := make(map[string][]byte)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row in namespace %s: %w", ns, err)
		}
		result[key] = value
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
