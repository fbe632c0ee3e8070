package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(8)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// PostgresBlobs keeps each collection as one text row of the collections
// table. The body is stored verbatim; jsonb would reject an escaped NUL.
type PostgresBlobs struct {
	db *sql.DB
}

func NewPostgresBlobs(db *sql.DB) *PostgresBlobs {
	return &PostgresBlobs{db: db}
}

func (b *PostgresBlobs) Read(ctx context.Context, c Collection) ([]byte, error) {
	var body string
	err := b.db.QueryRowContext(ctx, `SELECT body FROM collections WHERE name=$1`, string(c)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", c, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("select collection %s: %w", c, err)
	}
	return []byte(body), nil
}

func (b *PostgresBlobs) Write(ctx context.Context, c Collection, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO collections (name, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()
	`, string(c), string(data))
	if err != nil {
		return fmt.Errorf("upsert collection %s: %w", c, err)
	}
	return nil
}

func (b *PostgresBlobs) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}
