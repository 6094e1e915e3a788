package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool
	JWTSecret    string
	JWTIssuer    string

	// Settlement rules
	HostFeeRate          decimal.Decimal
	DepositFeeRate       decimal.Decimal
	PayoutAllowConfirmed bool

	// Payment processor
	ProcessorBaseURL       string
	ProcessorClientID      string
	ProcessorClientSecret  string
	ProcessorTokenURL      string
	ProcessorTimeout       time.Duration
	ProcessorWebhookSecret string

	// Background workers
	HoldPollInterval   time.Duration
	HoldPollStaleAfter time.Duration
	DepositClaimWindow time.Duration

	RateLimit          string
	RedisURL           string
	KafkaBrokers       []string
	KafkaAlertTopic    string
	CORSAllowedOrigins []string
}

// UsesStubProcessor reports whether no processor endpoint is configured.
func (c *Config) UsesStubProcessor() bool {
	return c.ProcessorBaseURL == ""
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "")
	viper.SetDefault("HOST_FEE_RATE", "0.15")
	viper.SetDefault("DEPOSIT_PLATFORM_FEE_RATE", "0")
	viper.SetDefault("PAYOUT_ALLOW_CONFIRMED", false)
	viper.SetDefault("PROCESSOR_BASE_URL", "")
	viper.SetDefault("PROCESSOR_CLIENT_ID", "")
	viper.SetDefault("PROCESSOR_CLIENT_SECRET", "")
	viper.SetDefault("PROCESSOR_TOKEN_URL", "")
	viper.SetDefault("PROCESSOR_TIMEOUT", "10s")
	viper.SetDefault("PROCESSOR_WEBHOOK_SECRET", "")
	viper.SetDefault("HOLD_POLL_INTERVAL", "1m")
	viper.SetDefault("HOLD_POLL_STALE_AFTER", "5m")
	viper.SetDefault("DEPOSIT_CLAIM_WINDOW", "336h")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_ALERT_TOPIC", "settlement.alerts")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:          viper.GetString("PGSQL_URL"),
		Port:                 viper.GetString("PORT"),
		IsProduction:         viper.GetBool("IS_PRODUCTION"),
		JWTSecret:            viper.GetString("JWT_SECRET"),
		JWTIssuer:            viper.GetString("JWT_ISSUER"),
		PayoutAllowConfirmed: viper.GetBool("PAYOUT_ALLOW_CONFIRMED"),

		ProcessorBaseURL:       strings.TrimRight(viper.GetString("PROCESSOR_BASE_URL"), "/"),
		ProcessorClientID:      viper.GetString("PROCESSOR_CLIENT_ID"),
		ProcessorClientSecret:  viper.GetString("PROCESSOR_CLIENT_SECRET"),
		ProcessorTokenURL:      viper.GetString("PROCESSOR_TOKEN_URL"),
		ProcessorWebhookSecret: viper.GetString("PROCESSOR_WEBHOOK_SECRET"),

		RateLimit:          viper.GetString("RATE_LIMIT"),
		RedisURL:           viper.GetString("REDIS_URL"),
		KafkaBrokers:       splitList(viper.GetString("KAFKA_BROKERS")),
		KafkaAlertTopic:    viper.GetString("KAFKA_ALERT_TOPIC"),
		CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	var err error
	if cfg.HostFeeRate, err = parseRate("HOST_FEE_RATE"); err != nil {
		return nil, err
	}
	if cfg.DepositFeeRate, err = parseRate("DEPOSIT_PLATFORM_FEE_RATE"); err != nil {
		return nil, err
	}

	cfg.ProcessorTimeout = parseDuration("PROCESSOR_TIMEOUT", 10*time.Second)
	cfg.HoldPollInterval = parseDuration("HOLD_POLL_INTERVAL", time.Minute)
	cfg.HoldPollStaleAfter = parseDuration("HOLD_POLL_STALE_AFTER", 5*time.Minute)
	cfg.DepositClaimWindow = parseDuration("DEPOSIT_CLAIM_WINDOW", 14*24*time.Hour)

	if cfg.UsesStubProcessor() {
		if cfg.IsProduction {
			return nil, fmt.Errorf("PROCESSOR_BASE_URL must be set in production")
		}
		log.Println("Warning: PROCESSOR_BASE_URL not set. Using the in-memory stub processor.")
	}
	if cfg.ProcessorWebhookSecret == "" {
		log.Println("Warning: PROCESSOR_WEBHOOK_SECRET not set. Webhook deliveries will be rejected.")
	}

	return cfg, nil
}

// parseRate reads a fee rate in [0, 1].
func parseRate(key string) (decimal.Decimal, error) {
	raw := viper.GetString(key)
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid value for %s (%q): %w", key, raw, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s must be between 0 and 1, got %s", key, rate)
	}
	return rate, nil
}

// parseDuration reads a duration such as "90s" or "1h", falling back on invalid input.
func parseDuration(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
