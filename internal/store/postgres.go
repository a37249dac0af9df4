package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps every document in a single kv table:
//
//	CREATE TABLE IF NOT EXISTS documents (
//	    key        text PRIMARY KEY,
//	    doc        jsonb NOT NULL,
//	    updated_at timestamptz NOT NULL DEFAULT now()
//	);
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			key        text PRIMARY KEY,
			doc        jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) Get(ctx context.Context, key string, into any) error {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM documents WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select document %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode document %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Put(ctx context.Context, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO documents (key, doc, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		key, raw)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, prefix string) ([]string, error) {
	pre := strings.TrimSuffix(prefix, "/") + "/"
	rows, err := p.pool.Query(ctx,
		`SELECT key FROM documents WHERE key LIKE $1 || '%' AND position('/' in substring(key from char_length($1) + 1)) = 0`,
		pre)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan document key: %w", err)
		}
		ids = append(ids, strings.TrimPrefix(key, pre))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document keys: %w", err)
	}
	return ids, nil
}

func (p *Postgres) DeleteAll(ctx context.Context, prefix string) error {
	pre := strings.TrimSuffix(prefix, "/") + "/"
	_, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE key LIKE $1 || '%'`, pre)
	if err != nil {
		return fmt.Errorf("delete documents %s: %w", prefix, err)
	}
	return nil
}
