// Package resultcache memoizes planner query results in Redis,
// keyed by the resolved query parameters. It holds the answers to
// queries, not the planner's own feed indices, which stay in-process.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/passbi/journeyplanner/internal/models"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// Config holds Redis connection and TTL settings.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
	MutexTTL time.Duration
}

// LoadConfigFromEnv builds a Config from the process environment,
// falling back to local defaults for anything unset.
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, _ := time.ParseDuration(getEnv("RESULTCACHE_TTL", "10m"))
	mutexTTL, _ := time.ParseDuration(getEnv("RESULTCACHE_MUTEX_TTL", "5s"))

	return &Config{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     port,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
		TTL:      ttl,
		MutexTTL: mutexTTL,
	}
}

// GetClient returns the global Redis client, connecting once.
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		config := LoadConfigFromEnv()

		client = redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
			Password:     config.Password,
			DB:           config.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("resultcache: connect to redis: %w", err)
		}
	})

	return client, clientErr
}

// Close releases the underlying Redis client.
func Close() {
	if client != nil {
		client.Close()
	}
}

// Key derives a deterministic cache key from a resolved query.
func Key(startID, endID string, dateKey string, tStart, k int) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d", startID, endID, dateKey, tStart, k)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("itin:%x", hash[:8])
}

func lockKey(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

// Get retrieves cached itineraries for key. A nil, nil result means a
// cache miss.
func Get(ctx context.Context, key string) ([]models.Itinerary, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}

	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var itineraries []models.Itinerary
	if err := json.Unmarshal(data, &itineraries); err != nil {
		return nil, fmt.Errorf("resultcache: unmarshal cached itineraries: %w", err)
	}
	return itineraries, nil
}

// Set caches itineraries for key with the given TTL.
func Set(ctx context.Context, key string, itineraries []models.Itinerary, ttl time.Duration) error {
	c, err := GetClient()
	if err != nil {
		return err
	}

	data, err := json.Marshal(itineraries)
	if err != nil {
		return fmt.Errorf("resultcache: marshal itineraries: %w", err)
	}
	return c.Set(ctx, key, data, ttl).Err()
}

// AcquireLock attempts a distributed lock for key's computation,
// returning false if another query is already computing it.
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c, err := GetClient()
	if err != nil {
		return false, err
	}
	return c.SetNX(ctx, lockKey(key), "1", ttl).Result()
}

// ReleaseLock releases a previously acquired lock.
func ReleaseLock(ctx context.Context, key string) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	return c.Del(ctx, lockKey(key)).Err()
}

// WaitForResult polls until key's lock is released, then returns
// whatever ended up cached (a thundering-herd guard for concurrent
// identical queries).
func WaitForResult(ctx context.Context, key string, maxWait time.Duration) ([]models.Itinerary, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		exists, err := c.Exists(ctx, lockKey(key)).Result()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			return Get(ctx, key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	return nil, fmt.Errorf("resultcache: timeout waiting for lock %s", key)
}

// HealthCheck pings Redis to verify connectivity.
func HealthCheck(ctx context.Context) error {
	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("resultcache: client not initialized: %w", err)
	}
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("resultcache: ping failed: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
