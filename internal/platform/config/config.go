package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr        string
	MetricsAddr string

	DatabaseURL string

	Redis RedisConfig
	Kafka KafkaConfig

	JWTSigningKey string

	// Authorities that bypass the access gate checks. Matched
	// case-insensitively against the principal's granted authorities.
	IgnoreExclusionAuthorities   []string
	IgnoreRestrictionAuthorities []string

	// Default for the custody update capability. A redis override, when
	// configured, takes precedence at runtime.
	CustodyUpdateEnabled bool

	// Courts whose code matches this pattern may be created or amended.
	CourtCodeAllowedPattern string
}

// RedisConfig holds connection settings for the optional redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds broker and topic settings for the notification dispatcher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:        envOr("CASEWORK_ADDR", ":8080"),
		MetricsAddr: envOr("CASEWORK_METRICS_ADDR", ":9090"),
		DatabaseURL: os.Getenv("CASEWORK_DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("CASEWORK_REDIS_URL"),
			PoolSize:     envIntOr("CASEWORK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("CASEWORK_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(envOr("CASEWORK_KAFKA_BROKERS", "")),
			Topic:   envOr("CASEWORK_KAFKA_TOPIC", "probation-case-events"),
		},
		JWTSigningKey:                envOr("CASEWORK_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		IgnoreExclusionAuthorities:   splitList(envOr("CASEWORK_IGNORE_EXCLUSIONS_FOR", "ROLE_IGNORE_DELIUS_EXCLUSIONS")),
		IgnoreRestrictionAuthorities: splitList(envOr("CASEWORK_IGNORE_RESTRICTIONS_FOR", "ROLE_IGNORE_DELIUS_INCLUSIONS")),
		CustodyUpdateEnabled:         envOr("CASEWORK_FEATURE_CUSTODY_UPDATE", "true") == "true",
		CourtCodeAllowedPattern:      envOr("CASEWORK_COURT_CODE_ALLOWED_PATTERN", ".*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
