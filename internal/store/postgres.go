package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS scenes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	format     TEXT NOT NULL,
	entities   INTEGER NOT NULL,
	data       BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scenes_updated_at ON scenes(updated_at);
`

// Postgres is the scene library for deployed servers.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool, now: time.Now}, nil
}

func (p *Postgres) Save(ctx context.Context, b SceneBlob) error {
	if err := validateBlob(b); err != nil {
		return err
	}
	b = stamp(b, p.now())
	_, err := p.pool.Exec(ctx, `
INSERT INTO scenes (id, name, format, entities, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	format = EXCLUDED.format,
	entities = EXCLUDED.entities,
	data = EXCLUDED.data,
	updated_at = EXCLUDED.updated_at`,
		b.ID, b.Name, b.Format, b.Entities, compress(b.Data), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save scene %s: %w", b.ID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (SceneBlob, error) {
	var (
		b    SceneBlob
		data []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, format, entities, data, created_at, updated_at FROM scenes WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Format, &b.Entities, &data, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SceneBlob{}, ErrNotFound
	}
	if err != nil {
		return SceneBlob{}, fmt.Errorf("get scene %s: %w", id, err)
	}
	if b.Data, err = decompress(data); err != nil {
		return SceneBlob{}, err
	}
	return b, nil
}

func (p *Postgres) List(ctx context.Context) ([]SceneInfo, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, format, entities, created_at, updated_at FROM scenes ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SceneInfo, error) {
		var info SceneInfo
		err := row.Scan(&info.ID, &info.Name, &info.Format, &info.Entities, &info.CreatedAt, &info.UpdatedAt)
		return info, err
	})
	if err != nil {
		return nil, fmt.Errorf("list scenes: %w", err)
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM scenes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scene %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Close() { p.pool.Close() }
