package config

import (
	"os"
	"strings"
	"time"

	"gowa-hub/internal/helper"
)

type Config struct {
	Port         string
	SessionRoot  string
	CacheRoot    string
	MaxSessions  int
	MediaTTL     time.Duration
	RateLimit    int
	RateBurst    int
	RateWindow   time.Duration
	AllowOrigins []string
}

func Load() *Config {
	origins := strings.Split(getEnv("CORS_ALLOW_ORIGINS", "*"), ",")
	for i, o := range origins {
		origins[i] = strings.TrimSpace(o)
	}

	return &Config{
		Port:         getEnv("PORT", "2121"),
		SessionRoot:  getEnv("SESSION_ROOT", "./sessions"),
		CacheRoot:    getEnv("MEDIA_CACHE_ROOT", "./media-cache"),
		MaxSessions:  helper.GetEnvAsInt("MAX_SESSIONS", 5),
		MediaTTL:     time.Duration(helper.GetEnvAsInt("MEDIA_TTL_MINUTES", 10)) * time.Minute,
		RateLimit:    helper.GetEnvAsInt("RATE_LIMIT_PER_SECOND", 10),
		RateBurst:    helper.GetEnvAsInt("RATE_LIMIT_BURST", 10),
		RateWindow:   time.Duration(helper.GetEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 3)) * time.Minute,
		AllowOrigins: origins,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
