package repo

import (
	"CourseForge/config"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy is returned when another holder owns the key lock.
var ErrLockBusy = errors.New("lock is busy")

// ConnectRedis builds and pings the Redis client.
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return client, nil
}

// MustConnectRedis connects or exits, for process bootstrap.
func MustConnectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	client, err := ConnectRedis(ctx, cfg)
	if err != nil {
		log.Fatal("init redis fail ", err)
	}
	log.Println("init redis success")
	return client
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker hands out advisory per-storage-key locks so the multi-step
// rename/replace/delete paths are not interleaved on the same key.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLocker creates a locker with the given lock TTL.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

// Acquire takes the lock for storageKey and returns its release func.
func (l *RedisLocker) Acquire(ctx context.Context, storageKey string) (func(), error) {
	lockKey := "filelock:" + storageKey
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockBusy
	}
	release := func() {
		_, _ = unlockScript.Run(context.Background(), l.rdb, []string{lockKey}, token).Result()
	}
	return release, nil
}

// URLCache caches presigned access URLs keyed by storage key. Entries
// expire ahead of the URL itself so a cached URL is never served stale.
type URLCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewURLCache builds a cache whose TTL trails urlExpiry by one minute.
func NewURLCache(rdb *redis.Client, urlExpiry time.Duration) *URLCache {
	ttl := urlExpiry - time.Minute
	if ttl <= 0 {
		ttl = urlExpiry / 2
	}
	return &URLCache{rdb: rdb, ttl: ttl}
}

func urlCacheKey(storageKey string) string {
	return "accessurl:" + storageKey
}

// Get returns the cached URL for a storage key, if any.
func (c *URLCache) Get(ctx context.Context, storageKey string) (string, bool) {
	val, err := c.rdb.Get(ctx, urlCacheKey(storageKey)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores a freshly presigned URL.
func (c *URLCache) Set(ctx context.Context, storageKey, url string) {
	_ = c.rdb.Set(ctx, urlCacheKey(storageKey), url, c.ttl).Err()
}

// Invalidate drops the cached URL after the key is deleted or moved.
func (c *URLCache) Invalidate(ctx context.Context, storageKey string) {
	_ = c.rdb.Del(ctx, urlCacheKey(storageKey)).Err()
}
