package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yegors/daily-sky/pkg/logger"
)

// KVStore is a PostgreSQL-backed single-key value store
type KVStore struct {
	pool   *pgxpool.Pool
	key    string
	logger *logger.Logger
}

// NewKVStore connects to databaseURL, creates the kv_store table if needed,
// and binds the store to key
func NewKVStore(ctx context.Context, databaseURL, key string, log *logger.Logger) (*KVStore, error) {
	storageLogger := log.Named("postgres")

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to create kv_store table: %w", err)
	}

	storageLogger.Info("Connected to PostgreSQL", logger.String("key", key))
	return &KVStore{pool: pool, key: key, logger: storageLogger}, nil
}

// Load returns the stored value, or nil when the key has never been saved
func (s *KVStore) Load(ctx context.Context) ([]byte, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, s.key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load %s: %w", s.key, err)
	}
	return []byte(value), nil
}

// Save overwrites the stored value
func (s *KVStore) Save(ctx context.Context, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, s.key, string(data))
	if err != nil {
		return fmt.Errorf("postgres: failed to save %s: %w", s.key, err)
	}

	s.logger.Debug("Saved value", logger.String("key", s.key), logger.Int("bytes", len(data)))
	return nil
}

// Close releases the connection pool
func (s *KVStore) Close() error {
	s.pool.Close()
	return nil
}
