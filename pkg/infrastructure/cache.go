package infrastructure

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// TieredCache is an in-memory L1 in front of an optional Redis L2. L1 is
// lost on restart; L2 is shared between instances.
type TieredCache struct {
	l1         sync.Map // key -> *cacheEntry
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
	log        *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewTieredCache creates the cache. redisURL may be empty to disable L2; an
// unreachable Redis also disables L2 instead of failing.
func NewTieredCache(ctx context.Context, redisURL string, ttl time.Duration, maxEntries int, log *slog.Logger) *TieredCache {
	if log == nil {
		log = slog.Default()
	}
	c := &TieredCache{ttl: ttl, maxEntries: maxEntries, log: log}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		} else {
			rdb := redis.NewClient(opts)
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pctx).Err(); err != nil {
				log.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				log.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
			}
		}
	}

	log.Info("cache: initialized", slog.Duration("ttl", ttl), slog.Bool("redis", c.rdb != nil), slog.Int("max_entries", maxEntries))
	return c
}

// Get tries L1, then L2. An L2 hit is copied into L1.
func (c *TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, ok := c.l1.Load(key); ok {
		entry := val.(*cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			c.hits.Add(1)
			return entry.data, true
		}
		c.l1.Delete(key)
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			c.log.Debug("cache: L2 hit", slog.String("key", key))
			c.hits.Add(1)
			c.l1.Store(key, &cacheEntry{data: data, expiresAt: time.Now().Add(c.ttl)})
			return data, true
		}
		if err != redis.Nil {
			c.log.Debug("cache: L2 get failed", slog.Any("error", err))
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores val in both tiers.
func (c *TieredCache) Set(ctx context.Context, key string, val []byte) {
	c.evictIfNeeded()
	c.l1.Store(key, &cacheEntry{data: val, expiresAt: time.Now().Add(c.ttl)})

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
			c.log.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// Stats returns hit and miss counters.
func (c *TieredCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *TieredCache) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// evictIfNeeded drops expired entries, then the oldest, until L1 has room
// for one more.
func (c *TieredCache) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}
	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count < c.maxEntries {
		return
	}

	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if entry := val.(*cacheEntry); now.After(entry.expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return true
	})

	for count >= c.maxEntries {
		var (
			oldestKey any
			oldestAt  time.Time
		)
		c.l1.Range(func(key, val any) bool {
			entry := val.(*cacheEntry)
			// expiry is insertion time plus ttl
			if oldestKey == nil || entry.expiresAt.Before(oldestAt) {
				oldestKey, oldestAt = key, entry.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			return
		}
		c.l1.Delete(oldestKey)
		count--
	}
}
