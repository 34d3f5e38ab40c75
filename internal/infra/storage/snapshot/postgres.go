package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPostgresDSN = "postgres://localhost/reva?sslmode=disable"

// PostgresStore keeps buckets as JSONB rows in a state table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, bucket string) ([]byte, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload::text FROM state WHERE bucket = $1`, bucket).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select state: %w", err)
	}
	return payload, true, nil
}

func (s *PostgresStore) Save(ctx context.Context, bucket string, payload []byte) error {
	if _, err := s.pool.Exec(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2::jsonb) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, string(payload)); err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
