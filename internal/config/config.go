package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL         string
	ServerAddr          string
	SessionTTL          time.Duration
	SessionCookieName   string
	SessionCookieSecure bool

	ReviewTimeout time.Duration
	SweepInterval time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	RedisURL          string
	NotifyChannel     string
	AuditSigningKey   string
	PrescreenRulesRaw string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "closet_hub")
		pass := getenv("POSTGRES_PASSWORD", "closet_hub_pass")
		db := getenv("POSTGRES_DB", "closet_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}
	addr := getenv("SERVER_ADDR", "0.0.0.0:8080")
	ttl := parseDuration(getenv("SESSION_TTL", "24h"), 24*time.Hour)
	cookieName := getenv("SESSION_COOKIE_NAME", "closet_hub_session")
	cookieSecure := parseBool(getenv("SESSION_COOKIE_SECURE", "false"), false)

	return &Config{
		DatabaseURL:         dsn,
		ServerAddr:          addr,
		SessionTTL:          ttl,
		SessionCookieName:   cookieName,
		SessionCookieSecure: cookieSecure,
		ReviewTimeout:       parseDuration(getenv("REVIEW_TIMEOUT", "72h"), 72*time.Hour),
		SweepInterval:       parseDuration(getenv("SWEEP_INTERVAL", "1m"), time.Minute),
		KafkaBrokers:        splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          getenv("KAFKA_TOPIC", "closet-hub.events"),
		RedisURL:            os.Getenv("REDIS_URL"),
		NotifyChannel:       getenv("NOTIFY_CHANNEL", "closet-hub:notifications"),
		AuditSigningKey:     os.Getenv("AUDIT_SIGNING_KEY"),
		PrescreenRulesRaw:   os.Getenv("PRESCREEN_RULES"),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := []string{}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
