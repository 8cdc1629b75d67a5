// Package storage keeps named JSON blobs in a SQLite database, the way the
// userscript kept them in the page's local storage.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Keys of the blobs the bot writes.
const (
	KeySelections = "molehillSavedSelections"
	KeyStatistics = "molehillAutomationStats"
)

// Blobs is the key/value surface the other packages depend on.
type Blobs interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// DB wraps a SQLite connection holding the blobs table.
type DB struct {
	conn *sqlx.DB
}

type blobRow struct {
	Key       string `db:"key"`
	Value     string `db:"value"`
	UpdatedAt int64  `db:"updated_at"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// a single writer keeps full-rewrite saves serialized
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	_, err := db.conn.Exec(schema)
	return err
}

// Get returns the blob stored under key. ok is false when nothing is stored.
func (db *DB) Get(key string) ([]byte, bool, error) {
	var row blobRow
	err := db.conn.Get(&row, "SELECT key, value, updated_at FROM blobs WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(row.Value), true, nil
}

// Put replaces the blob stored under key.
func (db *DB) Put(key string, value []byte) error {
	_, err := db.conn.NamedExec(`INSERT INTO blobs (key, value, updated_at)
		VALUES (:key, :value, :updated_at)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		blobRow{Key: key, Value: string(value), UpdatedAt: time.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec("DELETE FROM blobs WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
