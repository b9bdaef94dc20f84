package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// DefaultNotifyLocalHour pairs with the hourly default schedule so each
// member is greeted once, at 09:00 their time.
const DefaultNotifyLocalHour = 9

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL            string
	TelegramToken          string // Optional; greetings are only logged when empty
	LogLevel               string
	Environment            string
	CronSpecBirthdayCheck  string
	NotifyLocalHour        int // Local hour at which members are greeted; -1 greets in every firing of the day
	DeliveryMaxRetries     int
	DeliveryBaseDelay      time.Duration
	DeliveryMaxConcurrency int // 0 means one goroutine per matched member
	SkipOverlappingCycles  bool
	CycleTimeout           time.Duration
	HTTPAddr               string // Empty disables the ops HTTP server
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecBirthdayCheck = os.Getenv("CRON_SPEC_BIRTHDAY_CHECK")
	if cfg.CronSpecBirthdayCheck == "" {
		cfg.CronSpecBirthdayCheck = "0 * * * *" // Default: top of every hour
	}

	if cfg.NotifyLocalHour, err = intEnv("NOTIFY_LOCAL_HOUR", DefaultNotifyLocalHour); err != nil {
		return nil, err
	}
	if cfg.NotifyLocalHour < -1 || cfg.NotifyLocalHour > 23 {
		return nil, fmt.Errorf("invalid NOTIFY_LOCAL_HOUR: %d is not in [-1, 23]", cfg.NotifyLocalHour)
	}

	if cfg.DeliveryMaxRetries, err = intEnv("DELIVERY_MAX_RETRIES", 5); err != nil {
		return nil, err
	}
	if cfg.DeliveryMaxRetries < 0 {
		return nil, fmt.Errorf("invalid DELIVERY_MAX_RETRIES: must not be negative")
	}

	if cfg.DeliveryBaseDelay, err = durationEnv("DELIVERY_BASE_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.DeliveryBaseDelay <= 0 {
		return nil, fmt.Errorf("invalid DELIVERY_BASE_DELAY: must be positive")
	}

	if cfg.DeliveryMaxConcurrency, err = intEnv("DELIVERY_MAX_CONCURRENCY", 0); err != nil {
		return nil, err
	}
	if cfg.DeliveryMaxConcurrency < 0 {
		return nil, fmt.Errorf("invalid DELIVERY_MAX_CONCURRENCY: must not be negative")
	}

	if v := os.Getenv("SKIP_OVERLAPPING_CYCLES"); v != "" {
		cfg.SkipOverlappingCycles, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SKIP_OVERLAPPING_CYCLES: %w", err)
		}
	}

	if cfg.CycleTimeout, err = durationEnv("CYCLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}

	cfg.HTTPAddr = ":8080"
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
