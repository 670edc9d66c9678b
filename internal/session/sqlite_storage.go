package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS local_storage (
	origin TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (origin, key)
)`

const sqliteTimeout = 2 * time.Second

// SQLiteStorage guarda el token en un archivo SQLite, con una fila por origen.
type SQLiteStorage struct {
	db     *sql.DB
	origin string
}

// OpenSQLiteStorage abre (o crea) el archivo en path.
func OpenSQLiteStorage(path, origin string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	storage, err := NewSQLiteStorage(db, origin)
	if err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

// NewSQLiteStorage usa una conexión existente y asegura el esquema.
func NewSQLiteStorage(db *sql.DB, origin string) (*SQLiteStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create local_storage: %w", err)
	}
	return &SQLiteStorage{db: db, origin: normalizeOrigin(origin)}, nil
}

func (s *SQLiteStorage) Load() (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM local_storage WHERE origin = ? AND key = ?`,
		s.origin, storageKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStorage) Save(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_storage (origin, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(origin, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.origin, storageKey, token, time.Now().UTC())
	return err
}

func (s *SQLiteStorage) Delete() error {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM local_storage WHERE origin = ? AND key = ?`,
		s.origin, storageKey,
	)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
