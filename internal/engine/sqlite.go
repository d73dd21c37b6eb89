package engine

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	pkgengine "github.com/celerix-dev/certify-one/pkg/engine"
	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteSlots keeps slots as rows of an embedded SQLite database.
type SQLiteSlots struct {
	db *sql.DB
}

func NewSQLiteSlots(ctx context.Context, dbPath string) (*SQLiteSlots, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// A single connection serializes writers; SQLite allows only one at a time anyway.
	db.SetMaxOpenConns(1)
	s := &SQLiteSlots{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSlots) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS slots (
  name TEXT PRIMARY KEY,
  data BLOB NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "create slots table")
	}
	return nil
}

func (s *SQLiteSlots) Save(ctx context.Context, name string, data []byte) error {
	const stmt = `
INSERT INTO slots (name, data, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  data=excluded.data,
  updated_at=excluded.updated_at;
`
	_, err := s.db.ExecContext(ctx, stmt, name, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrapf(err, "upsert slot %s", name)
	}
	return nil
}

func (s *SQLiteSlots) Load(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM slots WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgengine.ErrSlotNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select slot %s", name)
	}
	return data, nil
}

func (s *SQLiteSlots) Remove(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE name = ?`, name); err != nil {
		return errors.Wrapf(err, "delete slot %s", name)
	}
	return nil
}

func (s *SQLiteSlots) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM slots ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list slots")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan slot name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteSlots) Close() error {
	return s.db.Close()
}
