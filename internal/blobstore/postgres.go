package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres keeps every blob in a single app_state table, one row per key.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS app_state (
			key        text PRIMARY KEY,
			blob       jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT blob FROM app_state WHERE key = $1
	`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (p *Postgres) Save(ctx context.Context, key string, blob []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO app_state (key, blob, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = now()
	`, key, blob)
	return err
}
