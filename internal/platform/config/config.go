package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the bridge.
type Config struct {
	Addr          string
	BaseURL       string
	JWTSigningKey string

	// PendingTTL bounds how long a login attempt may sit between initiation
	// and callback. SessionTTL bounds the authenticated browser session.
	PendingTTL time.Duration
	SessionTTL time.Duration

	ExternalAuth ExternalAuthConfig
	Redis        RedisConfig
	Postgres     PostgresConfig
	Kafka        KafkaConfig

	// ClientSeeds is a comma-separated list of id:name:redirect_uri entries
	// loaded into the client registry at startup.
	ClientSeeds string

	// EmbedProvider serves the built-in external provider stand-in on this
	// process for development and testing.
	EmbedProvider bool
}

// ExternalAuthConfig locates the external identity provider.
type ExternalAuthConfig struct {
	ServerURL      string
	LoginPath      string
	APIPath        string
	PlatformID     string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// FullLoginURL is the browser-facing login page URL.
func (c ExternalAuthConfig) FullLoginURL() string {
	return strings.TrimSuffix(c.ServerURL, "/") + c.LoginPath
}

// FullAPIURL is the server-to-server identity resolution endpoint.
func (c ExternalAuthConfig) FullAPIURL() string {
	return strings.TrimSuffix(c.ServerURL, "/") + c.APIPath
}

// RedisConfig configures the optional Redis-backed stores. An empty URL means
// in-memory stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional durable consent ledger. An empty DSN
// means the in-memory ledger.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig configures the optional consent event mirror. Empty brokers
// disable it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("AUTH_BRIDGE_ADDR", ":8080"),
		BaseURL:       envOr("AUTH_BRIDGE_BASE_URL", "http://localhost:8080"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PendingTTL:    envDuration("AUTH_BRIDGE_PENDING_TTL", 5*time.Minute),
		SessionTTL:    envDuration("AUTH_BRIDGE_SESSION_TTL", 30*time.Minute),
		ExternalAuth: ExternalAuthConfig{
			ServerURL:      envOr("EXTERNAL_AUTH_SERVER_URL", "http://localhost:8080"),
			LoginPath:      envOr("EXTERNAL_AUTH_LOGIN_PATH", "/provider/login"),
			APIPath:        envOr("EXTERNAL_AUTH_API_PATH", "/provider/api/userinfo"),
			PlatformID:     envOr("EXTERNAL_AUTH_PLATFORM_ID", "authbridge"),
			ConnectTimeout: envDuration("EXTERNAL_AUTH_CONNECT_TIMEOUT", 5*time.Second),
			ReadTimeout:    envDuration("EXTERNAL_AUTH_READ_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Topic: envOr("KAFKA_CONSENT_TOPIC", "authbridge.consent"),
		},
		ClientSeeds:   os.Getenv("AUTH_BRIDGE_CLIENTS"),
		EmbedProvider: os.Getenv("AUTH_BRIDGE_EMBED_PROVIDER") != "false",
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

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
