package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"shopward/internal/pkg/cache"
	"shopward/internal/pkg/env"
)

var sessionStore *session.Store

func NewSessionStore() *session.Store {
	// Get Redis client configuration from existing cache setup
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	// Sessions live in redis database 1, the cache uses database 0
	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		Expiration:     time.Hour * 1,
		KeyLookup:      "cookie:session_id",
	})

	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// UseStore replaces the process session store. Tests use this to install a
// memory-backed store instead of redis.
func UseStore(s *session.Store) {
	sessionStore = s
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue retrieves a value by key from the user's individual session
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	if v, ok := sess.Get(key).(string); ok {
		return v
	}
	return ""
}
