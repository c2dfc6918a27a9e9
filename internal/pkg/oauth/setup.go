package oauth

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/shopify"
	gothfiber "github.com/shareed2k/goth_fiber"

	"shopward/internal/pkg/cache"
	"shopward/internal/pkg/env"
)

// Setup initializes the Goth platform provider and its session store based on
// environment variables. It is safe to call multiple times; the provider will
// just be re-registered.
func Setup() {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}

	goth.UseProviders(
		shopify.New(
			env.GetEnv("PLATFORM_API_KEY", ""),
			env.GetEnv("PLATFORM_API_SECRET", ""),
			base+"/auth/platform/callback",
			shopify.ScopeReadProducts, shopify.ScopeReadOrders,
		),
	)

	// OAuth state via Redis, using same connection as app sessions (separate DB)
	cacheClient := cache.GetClient()
	cacheOpts := cacheClient.Options()
	host, port := "127.0.0.1", 6379
	if cacheOpts != nil && cacheOpts.Addr != "" {
		if h, p, err := net.SplitHostPort(cacheOpts.Addr); err == nil {
			host = h
			if parsed, e := strconv.Atoi(p); e == nil {
				port = parsed
			}
		} else {
			host = cacheOpts.Addr
		}
	}

	gothfiber.SessionStore = session.New(session.Config{
		Storage: redisstorage.New(redisstorage.Config{
			Host:     host,
			Port:     port,
			Username: cacheOpts.Username,
			Password: cacheOpts.Password,
			Database: 2,
			Reset:    false,
		}),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     72 * time.Hour,
	})
}
