package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"instafeed/internal/ports/ratelimit"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string
	Port      string
	JWTSecret string

	DB    DBConfig
	Redis RedisConfig

	EventBus           string // redis or kafka
	StreamConsumer     string
	KafkaBootstrap     string
	KafkaGroupPrefix   string
	FeedWindow         int
	FeedTTL            time.Duration
	FeedTimeout        time.Duration
	FeedDefaultPage    int
	TrendingInterval   time.Duration
	TrendingWindow     time.Duration
	TrendingLimit      int
	TrendingTTL        time.Duration
	CleanupInterval    time.Duration
	NotificationMaxAge time.Duration
	OutboxInterval     time.Duration
	BatchSize          int

	RateLimitDefault ratelimit.Rule
	RateLimitRules   map[string]ratelimit.Rule
}

type DBConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const defaultRateLimitRules = "post=50/1h,comment=100/1h,like=200/1h,follow=30/1h"

// Load reads .env when present, then the environment. Missing required
// values and malformed numbers are reported together.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	r := &reader{}
	cfg := &Config{
		Env:       r.str("APP_ENV", "development"),
		Port:      r.str("APP_PORT", "8080"),
		JWTSecret: r.required("JWT_SECRET"),
		DB: DBConfig{
			Driver:          r.str("DB_DRIVER", "mysql"),
			DSN:             r.required("DB_DSN"),
			MaxOpenConns:    r.number("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    r.number("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: r.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     r.required("REDIS_ADDR"),
			Password: r.str("REDIS_PASSWORD", ""),
			DB:       r.number("REDIS_DB", 0),
		},
		EventBus:           r.str("EVENT_BUS", "redis"),
		StreamConsumer:     r.str("STREAM_CONSUMER", hostname()),
		KafkaBootstrap:     r.str("KAFKA_BOOTSTRAP_SERVERS", ""),
		KafkaGroupPrefix:   r.str("KAFKA_GROUP_PREFIX", "instafeed"),
		FeedWindow:         r.positive("FEED_WINDOW", 100),
		FeedTTL:            r.duration("FEED_TTL", 10*time.Minute),
		FeedTimeout:        r.duration("FEED_TIMEOUT", 3*time.Second),
		FeedDefaultPage:    r.positive("FEED_DEFAULT_PAGE", 20),
		TrendingInterval:   r.duration("TRENDING_INTERVAL", 15*time.Minute),
		TrendingWindow:     r.duration("TRENDING_WINDOW", 24*time.Hour),
		TrendingLimit:      r.positive("TRENDING_LIMIT", 50),
		TrendingTTL:        r.duration("TRENDING_TTL", 30*time.Minute),
		CleanupInterval:    r.duration("CLEANUP_INTERVAL", time.Hour),
		NotificationMaxAge: r.duration("NOTIFICATION_RETENTION", 720*time.Hour),
		OutboxInterval:     r.duration("OUTBOX_INTERVAL", time.Second),
		BatchSize:          r.positive("BATCH_SIZE", 100),
		RateLimitDefault: ratelimit.Rule{
			Limit:  int64(r.positive("RATE_LIMIT_DEFAULT", 1000)),
			Window: r.duration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	rules, err := ParseRules(r.str("RATE_LIMIT_RULES", defaultRateLimitRules))
	if err != nil {
		r.errs = append(r.errs, err)
	}
	cfg.RateLimitRules = rules

	switch cfg.DB.Driver {
	case "mysql", "postgres":
	default:
		r.errs = append(r.errs, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DB.Driver))
	}
	switch cfg.EventBus {
	case "redis":
	case "kafka":
		if cfg.KafkaBootstrap == "" {
			r.errs = append(r.errs, errors.New("KAFKA_BOOTSTRAP_SERVERS is not set"))
		}
	default:
		r.errs = append(r.errs, fmt.Errorf("EVENT_BUS: unsupported bus %q", cfg.EventBus))
	}

	if len(r.errs) > 0 {
		return nil, dotenv, errors.Join(r.errs...)
	}
	return cfg, dotenv, nil
}

// ParseRules parses "scope=limit/window" pairs separated by commas, for
// example "post=50/1h,comment=100/1h".
func ParseRules(s string) (map[string]ratelimit.Rule, error) {
	rules := make(map[string]ratelimit.Rule)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		scope, rule, ok := strings.Cut(part, "=")
		if !ok || scope == "" {
			return nil, fmt.Errorf("RATE_LIMIT_RULES: malformed rule %q", part)
		}
		limitStr, windowStr, ok := strings.Cut(rule, "/")
		if !ok {
			return nil, fmt.Errorf("RATE_LIMIT_RULES: rule %q has no window", part)
		}
		limit, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RULES: rule %q has a bad limit", part)
		}
		window, err := time.ParseDuration(windowStr)
		if err != nil || window <= 0 {
			return nil, fmt.Errorf("RATE_LIMIT_RULES: rule %q has a bad window", part)
		}
		rules[strings.TrimSpace(scope)] = ratelimit.Rule{Limit: limit, Window: window}
	}
	return rules, nil
}

type reader struct {
	errs []error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *reader) required(key string) string {
	v := os.Getenv(key)
	if v == "" {
		r.errs = append(r.errs, fmt.Errorf("%s is not set", key))
	}
	return v
}

func (r *reader) number(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a non-negative integer", key, v))
		return def
	}
	return n
}

func (r *reader) positive(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a positive integer", key, v))
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a positive duration", key, v))
		return def
	}
	return d
}

// hostname names this process in Redis consumer groups. It must survive a
// restart so the new process owns what the old one left pending.
func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "instafeed"
	}
	return h
}
