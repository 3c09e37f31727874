package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"epilog-api/pkg/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "advice:"

// DeriveCacheKey fingerprints the categorical inputs of an advice request.
// It depends only on the per-pollutant grade ordinals and the normalized
// profile, never on raw concentrations, request time, or anything produced
// by retrieval/generation, so readings in the same grade bands share one
// entry.
//
// Key format: pm25:4_pm10:2_o3:2_no2:1_so2:1_co:2_age:elementary_high_cond:asthma
func DeriveCacheKey(reading models.PollutantReading, profile models.UserProfile) string {
	var b strings.Builder
	for _, pollutant := range models.Pollutants() {
		fmt.Fprintf(&b, "%s:%d_", pollutant, int(reading.Grade(pollutant)))
	}
	fmt.Fprintf(&b, "age:%s_cond:%s", profile.AgeGroup, profile.Condition)
	return b.String()
}

// AdviceCache is the advice result store. Get is a pure lookup: a miss is
// (zero, false, nil), never an error, and never triggers computation. Put
// overwrites the whole entry; callers treat a failed Put as a dropped
// optimization, not a request failure.
type AdviceCache interface {
	Get(ctx context.Context, key string) (models.AdviceResult, bool, error)
	Put(ctx context.Context, key string, result models.AdviceResult) error
}

// RedisAdviceCache implements AdviceCache on Redis. Entries are stored as
// JSON CacheEntry values without TTL; recomputation replaces them.
type RedisAdviceCache struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisAdviceCache connects to Redis and verifies the connection.
func NewRedisAdviceCache(addr, password string) (*RedisAdviceCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisAdviceCache{rdb: rdb, now: time.Now}, nil
}

// Get implements AdviceCache.Get. redis.Nil is a miss, not an error.
func (c *RedisAdviceCache) Get(ctx context.Context, key string) (models.AdviceResult, bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return models.AdviceResult{}, false, nil
		}
		return models.AdviceResult{}, false, err
	}
	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return models.AdviceResult{}, false, err
	}
	return entry.Data, true, nil
}

// Put implements AdviceCache.Put as a whole-entry overwrite.
func (c *RedisAdviceCache) Put(ctx context.Context, key string, result models.AdviceResult) error {
	entry := models.CacheEntry{
		Key:       key,
		Data:      result,
		CreatedAt: c.now(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKeyPrefix+key, raw, 0).Err()
}

// MemoryAdviceCache implements AdviceCache in process memory. Used for tests
// and for deployments without a Redis address; entries do not survive a
// restart.
type MemoryAdviceCache struct {
	mu      sync.RWMutex
	entries map[string]models.CacheEntry
}

// NewMemoryAdviceCache creates an empty in-memory cache.
func NewMemoryAdviceCache() *MemoryAdviceCache {
	return &MemoryAdviceCache{entries: make(map[string]models.CacheEntry)}
}

// Get implements AdviceCache.Get.
func (c *MemoryAdviceCache) Get(ctx context.Context, key string) (models.AdviceResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return models.AdviceResult{}, false, nil
	}
	return entry.Data, true, nil
}

// Put implements AdviceCache.Put.
func (c *MemoryAdviceCache) Put(ctx context.Context, key string, result models.AdviceResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = models.CacheEntry{Key: key, Data: result, CreatedAt: time.Now()}
	return nil
}
