package viewcount

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the pause each strategy takes inside its race window.
const DefaultDelay = 50 * time.Millisecond

// Strategy is one discipline for keeping the cached and durable counts in step.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string

	// Prepare seeds the cache for the configured post before serving.
	Prepare(ctx context.Context) error

	// Increment records one view and returns the count reported to the client.
	Increment(ctx context.Context, postID int64) (int64, error)
}

// Options configures a strategy.
type Options struct {
	PostID int64
	Delay  time.Duration
	Logger *zap.Logger
}

// Factory builds a strategy over a store.
type Factory func(store *Store, opts Options) Strategy

type registration struct {
	factory     Factory
	description string
}

var registry = map[string]registration{
	"cache-aside": {
		factory:     func(s *Store, o Options) Strategy { return &cacheAside{base: newBase("cache-aside", s, o)} },
		description: "read cache, write database, write cache after the delay (loses updates)",
	},
	"global-lock": {
		factory:     func(s *Store, o Options) Strategy { return &globalLock{base: newBase("global-lock", s, o)} },
		description: "cache-aside behind one process-wide mutex",
	},
	"record-lock": {
		factory:     func(s *Store, o Options) Strategy { return &recordLock{base: newBase("record-lock", s, o)} },
		description: "cache-aside behind a mutex per post id",
	},
	"atomic-incr": {
		factory:     func(s *Store, o Options) Strategy { return &atomicIncr{base: newBase("atomic-incr", s, o)} },
		description: "Redis INCR then database increment",
	},
	"cas": {
		factory:     func(s *Store, o Options) Strategy { return &compareAndSet{base: newBase("cas", s, o)} },
		description: "optimistic WATCH/MULTI/EXEC retry loop, database set to the new value",
	},
	"write-through": {
		factory:     func(s *Store, o Options) Strategy { return &writeThrough{base: newBase("write-through", s, o)} },
		description: "database increment, then re-read and overwrite the cache",
	},
	"invalidate": {
		factory:     func(s *Store, o Options) Strategy { return &invalidate{base: newBase("invalidate", s, o)} },
		description: "database increment, then delete the cache key",
	},
	"double-checked": {
		factory:     func(s *Store, o Options) Strategy { return &doubleChecked{base: newBase("double-checked", s, o)} },
		description: "seed the cache once under a lock, then INCR",
	},
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	reg, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	return reg.factory, nil
}

// New builds the named strategy.
func New(name string, store *Store, opts Options) (Strategy, error) {
	factory, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return factory(store, opts), nil
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a one-line description of the named strategy.
func Describe(name string) string {
	return registry[name].description
}

// base carries what every strategy shares.
type base struct {
	name   string
	store  *Store
	postID int64
	delay  time.Duration
	log    *zap.Logger
}

func newBase(name string, store *Store, opts Options) base {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return base{
		name:   name,
		store:  store,
		postID: opts.PostID,
		delay:  opts.Delay,
		log:    log.With(zap.String("strategy", name)),
	}
}

func (b *base) Name() string { return b.name }

// Prepare resets the cached count to zero.
func (b *base) Prepare(ctx context.Context) error {
	return b.store.setCache(ctx, CacheKey(b.postID), 0)
}

// pause sleeps for the configured delay or until ctx ends.
func (b *base) pause(ctx context.Context) error {
	if b.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(b.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
