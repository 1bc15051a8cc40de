package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"emberveil-engine/pkg/config"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

var (
	RedisClient *redis.Client
	ctx         = context.Background()
)

// Initialize Redis connection
func Initialize(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisURL(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Test connection
	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logrus.Info("Redis connected successfully")
	return nil
}

// Cache keys constants
const (
	KeyResourcePrice  = "economy:price:%s:%s"    // economy:price:<market>:<resource>
	KeyRegionIndex    = "economy:index:%s"       // economy:index:<region>
	KeyPriceTrends    = "economy:trends:%s"      // economy:trends:<resource>
	KeyPriceForecast  = "economy:forecast:%s"    // economy:forecast:<resource>
	KeyLastTickReport = "economy:tick:last"      // most recent tick report
	KeyEventsChannel  = "economy:events"         // pub/sub channel for domain events
)

// Cache expiration times
const (
	ExpireResourcePrice = 5 * time.Second
	ExpireRegionIndex   = 60 * time.Second
	ExpirePriceTrends   = 30 * time.Second
	ExpirePriceForecast = 120 * time.Second
	ExpireTickReport    = 10 * time.Minute
)

// Set stores a value in Redis with expiration
func Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	err = RedisClient.Set(ctx, key, jsonValue, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

// Get retrieves a value from Redis
func Get(key string, dest interface{}) error {
	val, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key %s not found", key)
		}
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}

	err = json.Unmarshal([]byte(val), dest)
	if err != nil {
		return fmt.Errorf("failed to unmarshal value for key %s: %w", key, err)
	}

	return nil
}

// Delete removes a key from Redis
func Delete(key string) error {
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Exists checks if a key exists in Redis
func Exists(key string) bool {
	result, err := RedisClient.Exists(ctx, key).Result()
	if err != nil {
		return false
	}
	return result > 0
}

// SetNX sets a key only if it doesn't exist
func SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value: %w", err)
	}

	result, err := RedisClient.SetNX(ctx, key, jsonValue, expiration).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return result, nil
}

// Increment atomically increments a key
func Increment(key string) (int64, error) {
	result, err := RedisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment key %s: %w", key, err)
	}

	return result, nil
}

// Expire sets expiration for a key
func Expire(key string, expiration time.Duration) error {
	err := RedisClient.Expire(ctx, key, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set expiration for key %s: %w", key, err)
	}

	return nil
}

// Pipeline creates a new Redis pipeline
func Pipeline() redis.Pipeliner {
	return RedisClient.Pipeline()
}

// Publish publishes a message to a channel
func Publish(channel string, message interface{}) error {
	jsonMessage, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = RedisClient.Publish(ctx, channel, jsonMessage).Err()
	if err != nil {
		return fmt.Errorf("failed to publish message to channel %s: %w", channel, err)
	}

	return nil
}

// Subscribe subscribes to Redis channels
func Subscribe(channels ...string) *redis.PubSub {
	return RedisClient.Subscribe(ctx, channels...)
}

// FlushDB flushes all keys in the current database
func FlushDB() error {
	err := RedisClient.FlushDB(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to flush database: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func Close() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// HealthCheck checks if Redis is healthy
func HealthCheck() error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("Redis ping failed: %w", err)
	}

	return nil
}

// Helper functions for common cache operations

// CacheResourcePrice caches a computed price for a resource at a market
func CacheResourcePrice(marketID, resourceID string, price interface{}) error {
	key := fmt.Sprintf(KeyResourcePrice, marketID, resourceID)
	return Set(key, price, ExpireResourcePrice)
}

// GetResourcePrice retrieves a cached price
func GetResourcePrice(marketID, resourceID string, dest interface{}) error {
	key := fmt.Sprintf(KeyResourcePrice, marketID, resourceID)
	return Get(key, dest)
}

// CacheTickReport caches the most recent tick report
func CacheTickReport(report interface{}) error {
	return Set(KeyLastTickReport, report, ExpireTickReport)
}

// GetTickReport retrieves the most recent tick report
func GetTickReport(dest interface{}) error {
	return Get(KeyLastTickReport, dest)
}

// InvalidateResourcePrice drops the cached quote for a resource at a market
func InvalidateResourcePrice(marketID, resourceID string) error {
	key := fmt.Sprintf(KeyResourcePrice, marketID, resourceID)
	return Delete(key)
}
