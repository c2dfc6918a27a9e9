package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"shopward/internal/pkg/env"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the redis cache server
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0, // use default DB
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	if client == nil {
		SetupCache()
	}
	return client
}

// Set stores a value in the cache with the given key and expiration time
func Set(key string, value interface{}, expiration time.Duration) error {
	return GetClient().Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func Get(key string) (string, error) {
	return GetClient().Get(ctx, key).Result()
}

// Delete removes a value from the cache by key
func Delete(key string) error {
	return GetClient().Del(ctx, key).Err()
}

// Expire resets the TTL of an existing key. Used for sliding expirations.
func Expire(key string, expiration time.Duration) error {
	return GetClient().Expire(ctx, key, expiration).Err()
}

// IsMiss reports whether an error from Get means the key does not exist.
func IsMiss(err error) bool {
	return err == redis.Nil
}
