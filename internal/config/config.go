package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

const (
	SettlementAlwaysComplete = "always_complete"
	SettlementStripe         = "stripe"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	ServiceName string
	Env         string
	LogFile     string
	Currency    currency.Unit

	Settlement          string
	StripeSecretKey     string
	StripePaymentMethod string
	SettlementTimeout   time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	DBMaxConns     int32
}

// Load reads an optional .env file, then the process environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("godotenv.Load: %w", err)
	}

	var errs []error

	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		ServiceName:         getEnv("SERVICE_NAME", "storefront"),
		Env:                 getEnv("ENV", "dev"),
		LogFile:             os.Getenv("LOG_FILE"),
		Settlement:          getEnv("SETTLEMENT", SettlementAlwaysComplete),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripePaymentMethod: getEnv("STRIPE_PAYMENT_METHOD", "pm_card_visa"),
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	unit, err := currency.ParseISO(getEnv("CURRENCY", "USD"))
	if err != nil {
		errs = append(errs, fmt.Errorf("CURRENCY: %w", err))
	}
	cfg.Currency = unit

	switch cfg.Settlement {
	case SettlementAlwaysComplete:
	case SettlementStripe:
		if cfg.StripeSecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required for stripe settlement"))
		}
	default:
		errs = append(errs, fmt.Errorf("SETTLEMENT[%s] is not supported", cfg.Settlement))
	}

	if cfg.SettlementTimeout, err = time.ParseDuration(getEnv("SETTLEMENT_TIMEOUT", "10s")); err != nil || cfg.SettlementTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SETTLEMENT_TIMEOUT must be a positive duration"))
	}

	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64); err != nil || cfg.RateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be a positive number"))
	}

	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40")); err != nil || cfg.RateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be a positive integer"))
	}

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "10"), 10, 32)
	if err != nil || maxConns <= 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be a positive integer"))
	}
	cfg.DBMaxConns = int32(maxConns)

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
