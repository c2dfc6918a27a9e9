package identity

import (
	"time"

	"shopward/internal/pkg/cache"
)

// redisStore adapts the shared cache client to the Store interface.
type redisStore struct{}

// NewRedisStore returns a Store backed by the shared redis cache.
func NewRedisStore() Store {
	return redisStore{}
}

func (redisStore) Get(key string) (string, bool, error) {
	val, err := cache.Get(key)
	if err != nil {
		if cache.IsMiss(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (redisStore) Set(key string, value string, ttl time.Duration) error {
	return cache.Set(key, value, ttl)
}

func (redisStore) Delete(key string) error {
	return cache.Delete(key)
}

func (redisStore) Expire(key string, ttl time.Duration) error {
	return cache.Expire(key, ttl)
}
