package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v9"

	"github.com/securizon/sentinel/internal/graphtypes"
	"github.com/securizon/sentinel/internal/pathfind"
)

type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(addr string, password string, db int, prefix string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		// Connection pool settings
		PoolSize:     100,
		MinIdleConns: 10,
		MaxConnAge:   30 * time.Minute,

		// Timeouts
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,

		// Circuit breaker
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    5 * time.Minute,
	}
}

func (rc *RedisCache) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	fullKey := rc.prefix + ":" + key

	data, err := rc.client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %v", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %v", err)
	}

	return true, nil
}

func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	fullKey := rc.prefix + ":" + key

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %v", err)
	}

	if ttl == 0 {
		ttl = rc.ttl
	}

	err = rc.client.Set(ctx, fullKey, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis set failed: %v", err)
	}

	return nil
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	fullKey := rc.prefix + ":" + key
	return rc.client.Del(ctx, fullKey).Err()
}

func (rc *RedisCache) GetOrSet(ctx context.Context, key string, ttl time.Duration,
	fetchFunc func() (interface{}, error)) (interface{}, error) {

	// Try to get from cache
	var cached interface{}
	found, err := rc.Get(ctx, key, &cached)
	if err != nil {
		return nil, err
	}
	if found {
		return cached, nil
	}

	// Not in cache, fetch from source
	value, err := fetchFunc()
	if err != nil {
		return nil, err
	}

	// Store in cache
	if err := rc.Set(ctx, key, value, ttl); err != nil {
		// Log but don't fail if cache set fails
		fmt.Printf("Failed to set cache: %v\n", err)
	}

	return value, nil
}

// CacheStats tracks PathCache hit/miss/error counts. Not safe for concurrent
// use by itself; PathCache only mutates it from within its own methods.
type CacheStats struct {
	hits   int64
	misses int64
	errors int64
}

// Hits, Misses, and Errors expose the counters for a metrics scrape.
func (s CacheStats) Hits() int64   { return s.hits }
func (s CacheStats) Misses() int64 { return s.misses }
func (s CacheStats) Errors() int64 { return s.errors }

// PathCache caches pathfind.Result computations, keyed by tenant and the
// request shape that produced them, so repeated attack-path queries for the
// same sources/targets/depth don't re-walk the graph. A process-local
// sync.Map sits in front of Redis for the hottest keys.
type PathCache struct {
	redis *RedisCache
	local *sync.Map
	stats CacheStats
	ttl   time.Duration
}

// NewPathCache builds a PathCache backed by Redis at addr, with a default
// two minute freshness window (attack surfaces change as the graph is
// rescanned, so results shouldn't live much longer than a scan cycle).
func NewPathCache(addr, password string, db int) *PathCache {
	return &PathCache{
		redis: NewRedisCache(addr, password, db, "sentinel-pathfind"),
		local: &sync.Map{},
		ttl:   2 * time.Minute,
	}
}

// PathCacheKey derives a deterministic cache key from a request's shape.
// Node id slices are sorted before joining so the same set of sources or
// targets in a different order still hits the same key.
func PathCacheKey(tenantID graphtypes.TenantId, sources, targets []graphtypes.NodeId, maxDepth, maxPaths int) string {
	return fmt.Sprintf("paths:%s:%s:%s:%d:%d",
		tenantID.String(), joinSortedIds(sources), joinSortedIds(targets), maxDepth, maxPaths)
}

func joinSortedIds(ids []graphtypes.NodeId) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	sort.Strings(strs)
	return strings.Join(strs, ",")
}

// GetOrCompute returns the cached result for key if present, otherwise runs
// compute, caches its result, and returns it. A Redis failure on read or
// write is recorded in stats but never fails the call: serving a fresh
// computation is always better than failing the request.
func (pc *PathCache) GetOrCompute(ctx context.Context, key string, compute func() (*pathfind.Result, error)) (*pathfind.Result, error) {
	if cached, ok := pc.local.Load(key); ok {
		pc.stats.hits++
		return cached.(*pathfind.Result), nil
	}

	var result pathfind.Result
	found, err := pc.redis.Get(ctx, key, &result)
	if err != nil {
		pc.stats.errors++
	} else if found {
		pc.stats.hits++
		pc.local.Store(key, &result)
		return &result, nil
	}

	pc.stats.misses++
	computed, err := compute()
	if err != nil {
		return nil, err
	}

	pc.local.Store(key, computed)
	if err := pc.redis.Set(ctx, key, computed, pc.ttl); err != nil {
		pc.stats.errors++
	}

	return computed, nil
}

// Stats returns a snapshot of this cache's hit/miss/error counters.
func (pc *PathCache) Stats() CacheStats {
	return pc.stats
}

// InvalidateTenant drops every cached path result for tenantID, both local
// and in Redis. Called after a discovery scan changes the tenant's graph,
// since cached paths may no longer reflect reality.
func (pc *PathCache) InvalidateTenant(ctx context.Context, tenantID graphtypes.TenantId) error {
	pattern := fmt.Sprintf("%s:paths:%s:*", pc.redis.prefix, tenantID.String())

	keys, err := pc.redis.client.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("redis keys scan failed: %v", err)
	}

	for _, fullKey := range keys {
		pc.redis.client.Del(ctx, fullKey)
		localKey := strings.TrimPrefix(fullKey, pc.redis.prefix+":")
		pc.local.Delete(localKey)
	}

	return nil
}
