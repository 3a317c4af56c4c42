package engine

import (
	"container/list"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/encoding/json"
)

// metaCache is the process cache for lookups that rarely change, such as
// YouTube video metadata: an LRU in memory (L1) backed by Redis (L2).
var metaCache *tieredCache

var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type tieredCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element // key → element holding *cacheEntry
	lru     *list.List               // front = most recently used
	rdb     *redis.Client            // nil when L2 is off
	ttl     time.Duration
	max     int
	stop    chan struct{}
}

type cacheEntry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// InitCache sets up the cache. Call after Init(). An empty redisURL keeps
// the cache in memory only. Calling it again replaces the previous cache.
func InitCache(redisURL string, ttl time.Duration, maxEntries int, cleanupInterval time.Duration) {
	c := &tieredCache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		ttl:     ttl,
		max:     maxEntries,
		stop:    make(chan struct{}),
	}
	if redisURL != "" {
		c.rdb = connectRedis(redisURL)
	}

	if metaCache != nil {
		close(metaCache.stop)
	}
	metaCache = c
	slog.Info("cache: initialized",
		slog.Duration("ttl", ttl),
		slog.Bool("redis", c.rdb != nil),
		slog.Int("max_entries", maxEntries))

	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	go c.sweepLoop(cleanupInterval)
}

func connectRedis(redisURL string) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Warn("cache: invalid redis URL, L2 disabled", slog.Any("error", err))
		return nil
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("cache: redis unreachable, L2 disabled", slog.Any("error", err))
		_ = rdb.Close()
		return nil
	}
	slog.Info("cache: L2 redis connected", slog.String("addr", opts.Addr))
	return rdb
}

// CacheKey builds a deterministic key from parts.
func CacheKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("nb:%x", sum[:12])
}

// CacheGet looks in memory first, then in Redis. A Redis hit is copied back
// into memory.
func CacheGet(ctx context.Context, key string) ([]byte, bool) {
	c := metaCache
	if c == nil {
		cacheMisses.Add(1)
		return nil, false
	}
	if data, ok := c.get(key, time.Now()); ok {
		cacheHits.Add(1)
		return data, true
	}
	if c.rdb != nil {
		if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
			slog.Debug("cache: L2 hit", slog.String("key", key))
			cacheHits.Add(1)
			c.put(key, data, time.Now())
			return data, true
		}
	}
	cacheMisses.Add(1)
	return nil, false
}

// CacheSet stores data in memory and, when configured, in Redis.
func CacheSet(ctx context.Context, key string, data []byte) {
	c := metaCache
	if c == nil {
		return
	}
	c.put(key, data, time.Now())
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("cache: L2 set failed", slog.Any("error", err))
		}
	}
}

// CacheStats returns the hit and miss counters.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

// CacheLoadJSON decodes a cached value of type T. A miss or an undecodable
// entry both report false.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	var out T
	data, ok := CacheGet(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// CacheStoreJSON encodes v and stores it.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSet(ctx, key, data)
}

func (c *tieredCache) get(key string, now time.Time) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*cacheEntry)
	if !now.Before(e.expiresAt) {
		c.remove(el)
		return nil, false
	}
	c.lru.MoveToFront(el)
	return e.data, true
}

func (c *tieredCache) put(key string, data []byte, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	expires := now.Add(c.ttl)
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*cacheEntry)
		e.data, e.expiresAt = data, expires
		c.lru.MoveToFront(el)
		return
	}
	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, data: data, expiresAt: expires})
	for c.max > 0 && c.lru.Len() > c.max {
		c.remove(c.lru.Back())
	}
}

// remove drops el; the caller holds mu.
func (c *tieredCache) remove(el *list.Element) {
	c.lru.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}

func (c *tieredCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// sweep drops expired entries and returns how many were removed.
func (c *tieredCache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*cacheEntry).expiresAt) {
			c.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *tieredCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			if n := c.sweep(now); n > 0 {
				slog.Debug("cache: swept expired entries", slog.Int("removed", n))
			}
		}
	}
}
