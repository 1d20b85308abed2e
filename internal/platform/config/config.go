package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	RedisURL      string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	// Billing tunables
	MonthlyInterestRate    decimal.Decimal
	DuplicatePaymentWindow time.Duration
	LockTTL                time.Duration
	BalanceCacheTTL        time.Duration

	// Background worker pool size for task queue consumption
	WorkerCount int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MONTHLY_INTEREST_RATE", "0.02")
	viper.SetDefault("DUPLICATE_PAYMENT_WINDOW", "60s")
	viper.SetDefault("LOCK_TTL", "30s")
	viper.SetDefault("BALANCE_CACHE_TTL", "5m")
	viper.SetDefault("WORKER_COUNT", 4)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	rateStr := viper.GetString("MONTHLY_INTEREST_RATE")
	rate, err := decimal.NewFromString(rateStr)
	if err != nil || !rate.IsPositive() {
		rate = decimal.RequireFromString("0.02")
		log.Printf("Warning: Invalid value for MONTHLY_INTEREST_RATE ('%s'). Defaulting to %s.\n", rateStr, rate.String())
	}
	cfg.MonthlyInterestRate = rate

	cfg.DuplicatePaymentWindow = parseDurationOr("DUPLICATE_PAYMENT_WINDOW", 60*time.Second)
	cfg.LockTTL = parseDurationOr("LOCK_TTL", 30*time.Second)
	cfg.BalanceCacheTTL = parseDurationOr("BALANCE_CACHE_TTL", 5*time.Minute)

	cfg.WorkerCount = viper.GetInt("WORKER_COUNT")
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
		log.Printf("Warning: Invalid WORKER_COUNT. Defaulting to %d.\n", cfg.WorkerCount)
	}

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}
