package store

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
CREATE TABLE IF NOT EXISTS scenes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	format     TEXT NOT NULL,
	entities   INTEGER NOT NULL,
	data       BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS scenes_updated_at ON scenes(updated_at);
`

// SQLite is the single-file scene library used for local runs and tests.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLite{db: db, now: time.Now}, nil
}

func (s *SQLite) Save(ctx context.Context, b SceneBlob) error {
	if err := validateBlob(b); err != nil {
		return err
	}
	b = stamp(b, s.now())
	_, err := s.db.ExecContext(ctx, `
INSERT INTO scenes (id, name, format, entities, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	format = excluded.format,
	entities = excluded.entities,
	data = excluded.data,
	updated_at = excluded.updated_at`,
		b.ID, b.Name, b.Format, b.Entities, compress(b.Data),
		b.CreatedAt.UnixMilli(), b.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save scene %s: %w", b.ID, err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, id string) (SceneBlob, error) {
	var (
		b                SceneBlob
		data             []byte
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, format, entities, data, created_at, updated_at FROM scenes WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Format, &b.Entities, &data, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return SceneBlob{}, ErrNotFound
	}
	if err != nil {
		return SceneBlob{}, fmt.Errorf("get scene %s: %w", id, err)
	}
	if b.Data, err = decompress(data); err != nil {
		return SceneBlob{}, err
	}
	b.CreatedAt = time.UnixMilli(created).UTC()
	b.UpdatedAt = time.UnixMilli(updated).UTC()
	return b, nil
}

func (s *SQLite) List(ctx context.Context) ([]SceneInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, format, entities, created_at, updated_at FROM scenes ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	defer rows.Close()

	out := []SceneInfo{}
	for rows.Next() {
		var (
			info             SceneInfo
			created, updated int64
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Format, &info.Entities, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		info.CreatedAt = time.UnixMilli(created).UTC()
		info.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete scene %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Close() { _ = s.db.Close() }
