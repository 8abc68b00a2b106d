package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	RedisURL  string
	JWTSecret string

	// Progression knobs. Durations come from env as Go duration strings.
	GraceWindow      time.Duration // how long a level survives an XP drop
	DecayWindow      time.Duration // age at which earned points expire
	ExpiryWarnWindow time.Duration // how far ahead expiry warnings look
	DefaultTimezone  string
	SweepBatchSize   int

	// Cron schedules for the background sweeps.
	ExpiryWarnCron       string
	ExpiryCheckCron      string
	GraceSweepCron       string
	DailyMaintenanceCron string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		RedisURL:  os.Getenv("REDIS_URL"),
		JWTSecret: getEnv("JWT_SECRET", "12345"),

		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "UTC"),

		ExpiryWarnCron:       getEnv("EXPIRY_WARN_CRON", "@daily"),
		ExpiryCheckCron:      getEnv("EXPIRY_CHECK_CRON", "@hourly"),
		GraceSweepCron:       getEnv("GRACE_SWEEP_CRON", "@hourly"),
		DailyMaintenanceCron: getEnv("DAILY_MAINTENANCE_CRON", "@daily"),
	}

	// Parsing durations
	var err error
	cfg.GraceWindow, err = parseDuration(getEnv("GRACE_WINDOW", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid GRACE_WINDOW: %w", err)
	}
	cfg.DecayWindow, err = parseDuration(getEnv("DECAY_WINDOW", "8760h"))
	if err != nil {
		return nil, fmt.Errorf("invalid DECAY_WINDOW: %w", err)
	}
	cfg.ExpiryWarnWindow, err = parseDuration(getEnv("EXPIRY_WARN_WINDOW", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPIRY_WARN_WINDOW: %w", err)
	}

	cfg.SweepBatchSize = 500
	if raw := os.Getenv("SWEEP_BATCH_SIZE"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &cfg.SweepBatchSize); err != nil {
			return nil, fmt.Errorf("invalid SWEEP_BATCH_SIZE: %w", err)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
