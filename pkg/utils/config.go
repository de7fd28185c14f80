package utils

import (
	"os"
	"strconv"
	"time"

	"streamhub/pkg/models"
)

// Config is the full deployment configuration for both binaries.
// Everything comes from the environment; there are no config files.
type Config struct {
	Port string
	Env  string

	AnilistEndpoint string

	UpstreamBaseURL string
	UpstreamCookie  string
	UpstreamTimeout time.Duration

	// DefaultCategory is applied when an import does not name one.
	DefaultCategory models.Category
	// CountViews makes the public detail endpoint bump the view
	// counter on every hit.
	CountViews bool
}

func Load() Config {
	cfg := Config{
		Port:            envOr("PORT", "8080"),
		Env:             envOr("APP_ENV", "development"),
		AnilistEndpoint: envOr("ANILIST_ENDPOINT", "https://graphql.anilist.co"),
		UpstreamBaseURL: envOr("UPSTREAM_BASE_URL", "https://kisskh.do"),
		UpstreamCookie:  os.Getenv("UPSTREAM_COOKIE"),
		UpstreamTimeout: 15 * time.Second,
		DefaultCategory: models.CategoryNewest,
		CountViews:      true,
	}

	if v := os.Getenv("UPSTREAM_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.UpstreamTimeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("DEFAULT_CATEGORY"); v != "" {
		if cat, ok := models.ParseCategory(v); ok {
			cfg.DefaultCategory = cat
		}
	}
	if v := os.Getenv("COUNT_VIEWS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CountViews = b
		}
	}

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
