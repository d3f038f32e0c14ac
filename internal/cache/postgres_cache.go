package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // postgres driver, registered via database/sql
)

// PostgresCache is the opt-in Cache backend (cache_backend: postgres),
// storing one row per cache key in cache_entries. Grounded on the
// connection-pooling and query style of this codebase's persistent
// key store.
type PostgresCache struct {
	db *sql.DB
}

// NewPostgresCache opens a connection pool against dsn. It does not run
// migrations; operators run cmd/varpipe-migrate before first use.
func NewPostgresCache(dsn string) (*PostgresCache, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("cache: ping postgres: %w", err)
	}

	return &PostgresCache{db: db}, nil
}

func (c *PostgresCache) Read(kind, key string) ([]byte, error) {
	ctx := context.Background()

	var payload []byte

	row := c.db.QueryRowContext(ctx,
		`SELECT payload FROM cache_entries WHERE kind = $1 AND key_hash = $2`,
		kind, canonicalKey(kind, key))

	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCacheMiss
		}

		return nil, fmt.Errorf("%w: %w", ErrCacheCorrupted, err)
	}

	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty entry", ErrCacheCorrupted)
	}

	return payload, nil
}

func (c *PostgresCache) Write(kind, key string, data []byte) error {
	ctx := context.Background()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache_entries (kind, key_hash, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (kind, key_hash)
		DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		kind, canonicalKey(kind, key), data)
	if err != nil {
		return fmt.Errorf("cache: write %s/%s: %w", kind, key, err)
	}

	return nil
}

func (c *PostgresCache) Close() error {
	return c.db.Close()
}
