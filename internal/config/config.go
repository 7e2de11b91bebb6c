package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	//App
	Env string `validate:"oneof=dev staging prod"`
	//HTTP
	HTTPAddr         string `validate:"required"`
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// BaseURL is the path prefix the service is mounted under ("" or "/sso").
	BaseURL string `validate:"omitempty,startswith=/"`
	// PublicURL is the externally visible origin, e.g. https://app.example.com
	PublicURL string `validate:"required,url"`

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// AllowedDomains lists email domains that may sign up without an invite.
	AllowedDomains string

	// Session
	SessionSecret string        `validate:"required"`
	SessionTTL    time.Duration `validate:"gt=0"`
	OAuthStateTTL time.Duration `validate:"gt=0"`

	// Infrastructure
	DBAddr         string `validate:"required"`
	DBDebug        bool
	RedisAddr      string
	RedisPassword  string
	RedisDB        int `validate:"gte=0"`
	RabbitURL      string
	RabbitExchange string `validate:"required"`

	// Rate limit for /auth routes
	AuthRateLimit  int           `validate:"gt=0"`
	AuthRateWindow time.Duration `validate:"gt=0"`
}

// GoogleAuthConfigured reports whether both Google client credentials are present.
func (c *Config) GoogleAuthConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

var validate = validator.New()

func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg := &Config{
		Env:       getEnv("ENV", "dev"),
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		BaseURL:   strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		PublicURL: strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),

		GoogleClientID:     getEnvFallback("GOOGLE_CLIENT_ID", "GOOGLE_OAUTH_CLIENT_ID"),
		GoogleClientSecret: getEnvFallback("GOOGLE_CLIENT_SECRET", "GOOGLE_OAUTH_CLIENT_SECRET"),
		AllowedDomains:     os.Getenv("ALLOWED_DOMAINS"),

		SessionSecret: os.Getenv("SESSION_SECRET"),

		DBAddr:         os.Getenv("DB_ADDR"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		RabbitExchange: getEnv("RABBIT_EXCHANGE", "sso.events"),
	}

	var err error
	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimit, err = getInt("AUTH_RATE_LIMIT", 20); err != nil {
		return nil, err
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"SESSION_TTL", 24 * time.Hour, &cfg.SessionTTL},
		{"OAUTH_STATE_TTL", 10 * time.Minute, &cfg.OAuthStateTTL},
		{"AUTH_RATE_WINDOW", time.Minute, &cfg.AuthRateWindow},
		{"HTTP_READ_TIMEOUT", 10 * time.Second, &cfg.HTTPReadTimeout},
		{"HTTP_WRITE_TIMEOUT", 30 * time.Second, &cfg.HTTPWriteTimeout},
		{"HTTP_IDLE_TIMEOUT", time.Minute, &cfg.HTTPIdleTimeout},
	}
	for _, d := range durations {
		v, err := getDuration(d.key, d.def)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvFallback returns the first non-empty value among keys.
func getEnvFallback(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}
