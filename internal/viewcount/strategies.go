package viewcount

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// readModifyWrite is the unguarded cache-aside sequence: the cache is read
// before the database write and overwritten after the delay, so concurrent
// calls that read the same value all write the same value back.
func (b *base) readModifyWrite(ctx context.Context, postID int64) (int64, error) {
	key := CacheKey(postID)
	var next int64

	err := b.store.withTx(ctx, func(tx *sql.Tx) error {
		current, hit, err := b.store.cachedCount(ctx, key)
		if err != nil {
			return err
		}
		if !hit {
			n, found, err := dbCount(ctx, tx, postID)
			if err != nil {
				return err
			}
			if found {
				if err := b.store.setCache(ctx, key, n); err != nil {
					return err
				}
			}
			b.log.Debug("cache miss", zap.Int64("post_id", postID), zap.Int64("db_count", n))
			current = n
		}

		next = current + 1
		if _, err := tx.ExecContext(ctx, incrementCountSQL, postID); err != nil {
			return fmt.Errorf("failed to increment view count: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := b.pause(ctx); err != nil {
		return 0, err
	}
	if err := b.store.setCache(ctx, key, next); err != nil {
		return 0, err
	}
	b.log.Debug("cache updated", zap.Int64("post_id", postID), zap.Int64("count", next))
	return next, nil
}

type cacheAside struct{ base }

func (s *cacheAside) Increment(ctx context.Context, postID int64) (int64, error) {
	return s.readModifyWrite(ctx, postID)
}

type globalLock struct {
	base
	mu sync.Mutex
}

func (s *globalLock) Increment(ctx context.Context, postID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readModifyWrite(ctx, postID)
}

type recordLock struct {
	base
	locks sync.Map // post id -> *sync.Mutex
}

func (s *recordLock) Increment(ctx context.Context, postID int64) (int64, error) {
	v, _ := s.locks.LoadOrStore(postID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()
	return s.readModifyWrite(ctx, postID)
}

type atomicIncr struct{ base }

func (s *atomicIncr) Increment(ctx context.Context, postID int64) (int64, error) {
	n, err := s.store.Cache.Incr(ctx, CacheKey(postID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment cache: %w", err)
	}
	if err := s.store.incrementDB(ctx, postID); err != nil {
		return 0, err
	}
	if err := s.pause(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

type compareAndSet struct{ base }

func (s *compareAndSet) Increment(ctx context.Context, postID int64) (int64, error) {
	key := CacheKey(postID)
	var next int64

	for attempt := 1; ; attempt++ {
		err := s.store.Cache.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Int64()
			if errors.Is(err, redis.Nil) {
				current, _, err = dbCount(ctx, s.store.DB, postID)
			}
			if err != nil {
				return err
			}

			next = current + 1
			if err := s.pause(ctx); err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, next, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			s.log.Debug("cache changed during transaction, retrying",
				zap.Int64("post_id", postID), zap.Int("attempt", attempt))
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to update cache: %w", err)
		}
		break
	}

	err := s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, setCountSQL, next, postID); err != nil {
			return fmt.Errorf("failed to set view count: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

type writeThrough struct{ base }

func (s *writeThrough) Increment(ctx context.Context, postID int64) (int64, error) {
	if err := s.store.incrementDB(ctx, postID); err != nil {
		return 0, err
	}
	if err := s.pause(ctx); err != nil {
		return 0, err
	}

	n, found, err := dbCount(ctx, s.store.DB, postID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("post %d: %w", postID, ErrPostNotFound)
	}
	if err := s.store.setCache(ctx, CacheKey(postID), n); err != nil {
		return 0, err
	}
	return n, nil
}

type invalidate struct{ base }

func (s *invalidate) Increment(ctx context.Context, postID int64) (int64, error) {
	if err := s.store.incrementDB(ctx, postID); err != nil {
		return 0, err
	}
	if err := s.pause(ctx); err != nil {
		return 0, err
	}
	if err := s.store.Cache.Del(ctx, CacheKey(postID)).Err(); err != nil {
		return 0, fmt.Errorf("failed to invalidate cache: %w", err)
	}

	n, found, err := dbCount(ctx, s.store.DB, postID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("post %d: %w", postID, ErrPostNotFound)
	}
	return n, nil
}

type doubleChecked struct {
	base
	mu sync.Mutex
}

// Prepare clears the cache so the first request seeds it from the database.
func (s *doubleChecked) Prepare(ctx context.Context) error {
	if err := s.store.Cache.Del(ctx, CacheKey(s.postID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (s *doubleChecked) Increment(ctx context.Context, postID int64) (int64, error) {
	key := CacheKey(postID)

	if err := s.seed(ctx, postID, key); err != nil {
		return 0, err
	}

	n, err := s.store.Cache.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment cache: %w", err)
	}
	if err := s.store.incrementDB(ctx, postID); err != nil {
		return 0, err
	}
	if err := s.pause(ctx); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *doubleChecked) seed(ctx context.Context, postID int64, key string) error {
	exists, err := s.store.Cache.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check cache: %w", err)
	}
	if exists > 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err = s.store.Cache.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check cache: %w", err)
	}
	if exists > 0 {
		return nil
	}

	n, _, err := dbCount(ctx, s.store.DB, postID)
	if err != nil {
		return err
	}
	s.log.Debug("seeding cache from database", zap.Int64("post_id", postID), zap.Int64("count", n))
	return s.store.setCache(ctx, key, n)
}
