package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config aggregates every process-level setting so main stays lean. All
// values come from the environment with development defaults.
type Config struct {
	Server      Server
	Postgres    Postgres
	Redis       RedisConfig
	Kafka       Kafka
	Chain       Chain
	Marketplace Marketplace
	Oracle      Oracle
	Spending    Spending
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Postgres captures database connectivity. An empty DSN selects the in-memory
// stores, which keeps local development dependency-free.
type Postgres struct {
	DSN string
}

// RedisConfig captures connection pool settings for the rate cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the optional audit event sink. Empty brokers disable it.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Chain configures gas sponsorship against the chain RPC.
type Chain struct {
	RPCURL string
	// MinGasThreshold is the executing-wallet balance below which a sponsor
	// transfer is triggered.
	MinGasThreshold decimal.Decimal
	// SponsorAmount is the fixed amount transferred per sponsorship.
	SponsorAmount decimal.Decimal
	// FinalityTimeout bounds the wait for a sponsor transfer to finalize.
	FinalityTimeout time.Duration
	// FinalityPollInterval is the confirmation polling cadence.
	FinalityPollInterval time.Duration
}

// Marketplace configures the aggregator client.
type Marketplace struct {
	BaseURL string
	Timeout time.Duration
	// FeeRate is the platform fee applied on top of buy/accept actions.
	FeeRate decimal.Decimal
}

// Oracle configures the price feed used for currency conversion.
type Oracle struct {
	BaseURL string
	Timeout time.Duration
}

// Spending tunes the authorization pipeline.
type Spending struct {
	// SerializeRequests enables the per-dependent and per-family advisory
	// locks around the check-then-act sections of the pipeline.
	SerializeRequests bool
	// RateCacheTTL bounds how long an oracle spot rate may be reused.
	RateCacheTTL time.Duration
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("CUSTOS_ADDR", ":8080"),
			JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Postgres: Postgres{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "custos.audit"),
		},
		Chain: Chain{
			RPCURL:               envOr("CHAIN_RPC_URL", "http://localhost:8545"),
			MinGasThreshold:      envDecimalOr("GAS_MIN_THRESHOLD", "0.002"),
			SponsorAmount:        envDecimalOr("GAS_SPONSOR_AMOUNT", "0.01"),
			FinalityTimeout:      envDurationOr("GAS_FINALITY_TIMEOUT", 90*time.Second),
			FinalityPollInterval: envDurationOr("GAS_FINALITY_POLL_INTERVAL", 2*time.Second),
		},
		Marketplace: Marketplace{
			BaseURL: envOr("MARKETPLACE_URL", "http://localhost:9010"),
			Timeout: envDurationOr("MARKETPLACE_TIMEOUT", 30*time.Second),
			FeeRate: envDecimalOr("PLATFORM_FEE_RATE", "0.02"),
		},
		Oracle: Oracle{
			BaseURL: envOr("PRICE_ORACLE_URL", "http://localhost:9020"),
			Timeout: envDurationOr("PRICE_ORACLE_TIMEOUT", 5*time.Second),
		},
		Spending: Spending{
			SerializeRequests: envOr("SPENDING_SERIALIZE_REQUESTS", "true") == "true",
			RateCacheTTL:      envDurationOr("RATE_CACHE_TTL", 30*time.Second),
		},
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

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envDecimalOr(key, fallback string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(fallback)
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
