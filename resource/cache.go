package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cacher sits in front of detail lookups. Implementations never surface
// errors: a failed read is a miss and a failed write is dropped, so a flaky
// cache only costs queries.
type Cacher[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, val T)
}

// NoopCache misses on every read. It is the default cacher.
type NoopCache[T any] struct{}

func (NoopCache[T]) Get(_ context.Context, _ string) (T, bool) {
	var zero T
	return zero, false
}

func (NoopCache[T]) Set(_ context.Context, _ string, _ T) {}

// MapCache is an in-process cache with a per-entry TTL. Suitable for a
// single instance; use RedisCache when instances must share.
type MapCache[T any] struct {
	mu  sync.Mutex
	ttl time.Duration
	val map[string]mapCacheVal[T]
}

type mapCacheVal[T any] struct {
	obj       T
	expiresAt time.Time
}

func NewMapCache[T any](ttl time.Duration) *MapCache[T] {
	return &MapCache[T]{ttl: ttl, val: make(map[string]mapCacheVal[T])}
}

func (c *MapCache[T]) Get(_ context.Context, key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.val[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.val, key)

		var zero T
		return zero, false
	}

	return entry.obj, true
}

func (c *MapCache[T]) Set(_ context.Context, key string, obj T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.val[key] = mapCacheVal[T]{obj: obj, expiresAt: time.Now().Add(c.ttl)}
}

// RedisCache shares detail lookups across instances, storing objects as JSON.
type RedisCache[T any] struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache[T any](client *redis.Client, ttl time.Duration) RedisCache[T] {
	return RedisCache[T]{client: client, ttl: ttl}
}

func (c RedisCache[T]) Get(ctx context.Context, key string) (T, bool) {
	var obj T

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return obj, false
	}

	if err := json.Unmarshal(raw, &obj); err != nil {
		return obj, false
	}

	return obj, true
}

func (c RedisCache[T]) Set(ctx context.Context, key string, obj T) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return
	}

	c.client.Set(ctx, key, raw, c.ttl)
}

// cacheKey derives a stable key from the resource name and lookup filters.
func cacheKey(name string, filters map[string]any) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteString(":detail")
	for _, k := range keys {
		fmt.Fprintf(&b, ":%s=%v", k, filters[k])
	}

	return b.String()
}
