package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DefaultPostgresTable is the table used when none is configured.
const DefaultPostgresTable = "gardener_cache"

var tableNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresCache stores entries in a single key/value table.
type PostgresCache struct {
	db    *sql.DB
	table string

	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgresCache opens dsn through the pgx stdlib driver.
func NewPostgresCache(ctx context.Context, dsn, table string) (*PostgresCache, error) {
	if table == "" {
		table = DefaultPostgresTable
	}
	if !tableNameRE.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	c := &PostgresCache{db: db, table: table}
	if err := c.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *PostgresCache) ensureSchema(ctx context.Context) error {
	c.schemaOnce.Do(func() {
		_, c.schemaErr = c.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+c.table+` (
  key TEXT PRIMARY KEY,
  data BYTEA NOT NULL,
  expires_at TIMESTAMP WITH TIME ZONE,
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);`)
	})
	return c.schemaErr
}

// Get retrieves a value.
func (c *PostgresCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data      []byte
		expiresAt sql.NullTime
	)
	row := c.db.QueryRowContext(ctx, `SELECT data, expires_at FROM `+c.table+` WHERE key = $1`, key)
	if err := row.Scan(&data, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if expiresAt.Valid && time.Now().After(expiresAt.Time) {
		return nil, false, nil
	}
	return data, true, nil
}

// Set upserts a value.
func (c *PostgresCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}
	_, err := c.db.ExecContext(ctx, `
INSERT INTO `+c.table+` (key, data, expires_at, updated_at) VALUES ($1, $2, $3, NOW())
ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
		key, data, expiresAt)
	return err
}

// Delete removes a value.
func (c *PostgresCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM `+c.table+` WHERE key = $1`, key)
	return err
}

// Close closes the connection pool.
func (c *PostgresCache) Close() error {
	return c.db.Close()
}

var _ Cache = (*PostgresCache)(nil)
