package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const sqliteTimeLayout = time.RFC3339Nano

// Registered database/sql driver names.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

func ValidDriver(name string) bool {
	return name == DriverCGO || name == DriverPureGo
}

type SQLiteKV struct {
	db    *sql.DB
	scope string
	now   func() time.Time
}

func NewSQLiteKV(db *sql.DB, scope string) (*SQLiteKV, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if strings.TrimSpace(scope) == "" {
		return nil, errors.New("storage: scope is required")
	}
	return &SQLiteKV{db: db, scope: scope, now: time.Now}, nil
}

// OpenSQLite opens the database file, creating its directory, and applies
// the embedded migrations.
func OpenSQLite(driver, path string) (*sql.DB, error) {
	if driver == "" {
		driver = DriverCGO
	}
	if !ValidDriver(driver) {
		return nil, fmt.Errorf("storage: unsupported sqlite driver %q", driver)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The store writer and the scheduler share one file; a single connection
	// serialises them and keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (k *SQLiteKV) Scope() string {
	return k.scope
}

// WithScope returns a view of the same table under another scope.
func (k *SQLiteKV) WithScope(scope string) *SQLiteKV {
	return &SQLiteKV{db: k.db, scope: scope, now: k.now}
}

func (k *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := k.db.QueryRowContext(ctx, `SELECT payload FROM kv WHERE scope = ? AND key = ?`, k.scope, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", k.scope, key, err)
	}
	return payload, nil
}

func (k *SQLiteKV) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := k.db.ExecContext(ctx, `
		INSERT INTO kv (scope, key, payload, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		k.scope, key, value, k.now().UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", k.scope, key, err)
	}
	return nil
}

func (k *SQLiteKV) Remove(ctx context.Context, key string) error {
	if _, err := k.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ? AND key = ?`, k.scope, key); err != nil {
		return fmt.Errorf("remove %s/%s: %w", k.scope, key, err)
	}
	return nil
}

func (k *SQLiteKV) Keys(ctx context.Context) ([]string, error) {
	rows, err := k.db.QueryContext(ctx, `SELECT key FROM kv WHERE scope = ? ORDER BY key`, k.scope)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", k.scope, err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

// UpdatedAt reports when key was last written.
func (k *SQLiteKV) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var raw string
	err := k.db.QueryRowContext(ctx, `SELECT updated_at FROM kv WHERE scope = ? AND key = ?`, k.scope, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, err
	}
	return time.Parse(sqliteTimeLayout, raw)
}
