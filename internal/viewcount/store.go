// Package viewcount implements the post view counter that the load generator
// hammers: a Redis cache in front of a PostgreSQL table, updated under one of
// several consistency strategies.
package viewcount

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	createTableSQL    = "CREATE TABLE IF NOT EXISTS content (id BIGINT PRIMARY KEY, view_count BIGINT NOT NULL DEFAULT 0)"
	insertPostSQL     = "INSERT INTO content (id, view_count) VALUES ($1, 0) ON CONFLICT (id) DO NOTHING"
	selectCountSQL    = "SELECT view_count FROM content WHERE id = $1"
	incrementCountSQL = "UPDATE content SET view_count = view_count + 1 WHERE id = $1"
	setCountSQL       = "UPDATE content SET view_count = $1 WHERE id = $2"
)

// ErrPostNotFound is returned when the content table has no row for a post.
var ErrPostNotFound = errors.New("post not found")

// CacheKey returns the Redis key holding a post's cached view count.
func CacheKey(postID int64) string {
	return fmt.Sprintf("post:%d:view_count", postID)
}

// CountQuery returns the SQL an operator runs to read a post's durable count.
func CountQuery(postID int64) string {
	return fmt.Sprintf("SELECT view_count FROM content WHERE id = %d;", postID)
}

// Store pairs the cache and the database that hold the same counter.
type Store struct {
	Cache *redis.Client
	DB    *sql.DB
}

// NewStore creates a store over existing clients.
func NewStore(cache *redis.Client, db *sql.DB) *Store {
	return &Store{Cache: cache, DB: db}
}

// OpenCache connects to Redis and verifies the connection.
func OpenCache(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// OpenDatabase opens a PostgreSQL handle and verifies the connection.
func OpenDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// EnsurePost creates the content table if needed and makes sure the post row exists.
func (s *Store) EnsurePost(ctx context.Context, postID int64) error {
	if _, err := s.DB.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create content table: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, insertPostSQL, postID); err != nil {
		return fmt.Errorf("failed to insert post %d: %w", postID, err)
	}
	return nil
}

// Close closes both clients.
func (s *Store) Close() error {
	return errors.Join(s.Cache.Close(), s.DB.Close())
}

// cachedCount reads the cached count. The bool is false on a cache miss.
func (s *Store) cachedCount(ctx context.Context, key string) (int64, bool, error) {
	n, err := s.Cache.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read cache: %w", err)
	}
	return n, true, nil
}

func (s *Store) setCache(ctx context.Context, key string, n int64) error {
	if err := s.Cache.Set(ctx, key, n, 0).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dbCount reads the durable count. The bool is false if the post row is missing.
func dbCount(ctx context.Context, q queryer, postID int64) (int64, bool, error) {
	var n int64
	err := q.QueryRowContext(ctx, selectCountSQL, postID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read view count: %w", err)
	}
	return n, true, nil
}

// withTx runs fn in a transaction, committing on success and rolling back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// incrementDB adds one to the durable count in its own transaction.
func (s *Store) incrementDB(ctx context.Context, postID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, incrementCountSQL, postID); err != nil {
			return fmt.Errorf("failed to increment view count: %w", err)
		}
		return nil
	})
}
