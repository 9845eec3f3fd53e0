package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service. Values come from
// the environment so deployments stay twelve-factor; empty optional sections
// (Postgres, Redis, Kafka) select the in-process fallbacks.
type Config struct {
	Addr          string
	JWTSigningKey string

	HTTP        HTTPConfig
	Admin       AdminConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	WildApricot WildApricotConfig

	AuditBuffer int
}

// HTTPConfig tunes the server's connection handling.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// AdminConfig seeds the bootstrap admin account. Without an email and
// password no admin is provisioned and the admin routes stay unreachable,
// so production deployments must set both.
type AdminConfig struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// PostgresConfig selects the durable store. An empty DSN runs the service on
// in-memory stores.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
}

// RedisConfig configures the shared Redis client. Empty URL disables Redis.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

// KafkaConfig configures the audit sink. Empty broker list disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// WildApricotConfig holds credentials for the external membership platform.
type WildApricotConfig struct {
	BaseURL string
	AuthURL string
	APIKey  string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("STUDBOOK_ADDR", ":8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		HTTP: HTTPConfig{
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Admin: AdminConfig{
			Email:     os.Getenv("ADMIN_EMAIL"),
			Password:  os.Getenv("ADMIN_PASSWORD"),
			FirstName: envOr("ADMIN_FIRST_NAME", "Registry"),
			LastName:  envOr("ADMIN_LAST_NAME", "Admin"),
		},
		Postgres: PostgresConfig{
			DSN:      os.Getenv("POSTGRES_DSN"),
			MaxConns: 10,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Kafka: KafkaConfig{
			Topic: envOr("KAFKA_AUDIT_TOPIC", "studbook.audit"),
		},
		WildApricot: WildApricotConfig{
			BaseURL: envOr("WA_BASE_URL", "https://api.wildapricot.org/v2.2"),
			AuthURL: envOr("WA_AUTH_URL", "https://oauth.wildapricot.org/auth/token"),
			APIKey:  os.Getenv("WA_API_KEY"),
		},
		AuditBuffer: 256,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
