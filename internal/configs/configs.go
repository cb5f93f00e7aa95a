package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppEnv                   string
	AppURL                   string
	LogLevel                 string
	DatabaseDriver           string
	DatabaseDSN              string
	TxMaxRetries             int
	FeedPageSize             int
	SubscriptionPollSeconds  int
	RateLimit                int
	RedisEnabled             bool
	RedisAddr                string
	RedisRateLimitPrefix     string
	NatsURL                  string
	NatsConnectTimeoutSecond int
	AuthJWTSecret            string
	ShutdownTimeoutSeconds   int
}

func Load() (Config, error) {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	cfg := Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		AppURL:               fmt.Sprintf("%s:%s", appHost, appPort),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseDriver:       strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseDSN:          getEnv("DATABASE_DSN", "assignmint.db"),
		RedisAddr:            fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisRateLimitPrefix: getEnv("REDIS_RATE_LIMIT_PREFIX", "assignmint:ratelimit"),
		NatsURL:              getEnv("NATS_URL", ""),
		AuthJWTSecret:        getEnv("AUTH_JWT_SECRET", ""),
	}

	var err error
	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"TX_MAX_RETRIES", 5, &cfg.TxMaxRetries},
		{"FEED_PAGE_SIZE", 20, &cfg.FeedPageSize},
		{"SUBSCRIPTION_POLL_INTERVAL_SECONDS", 5, &cfg.SubscriptionPollSeconds},
		{"RATE_LIMIT_PER_MINUTE", 60, &cfg.RateLimit},
		{"NATS_CONNECT_TIMEOUT_SECONDS", 30, &cfg.NatsConnectTimeoutSecond},
		{"SHUTDOWN_TIMEOUT_SECONDS", 20, &cfg.ShutdownTimeoutSeconds},
	}
	for _, v := range ints {
		if *v.dst, err = getEnvAsInt(v.key, v.def); err != nil {
			return Config{}, err
		}
	}

	if cfg.RedisEnabled, err = getEnvAsBool("REDIS_ENABLED", false); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func validate(cfg Config) error {
	var errs []error
	if cfg.AppURL == "" {
		errs = append(errs, errors.New("APP_HOST/APP_PORT must not be empty (e.g. 127.0.0.1:8080)"))
	}
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", cfg.DatabaseDriver))
	}
	if cfg.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must not be empty"))
	}
	if cfg.TxMaxRetries <= 0 {
		errs = append(errs, errors.New("TX_MAX_RETRIES must be greater than 0"))
	}
	if cfg.FeedPageSize <= 0 || cfg.FeedPageSize > 100 {
		errs = append(errs, errors.New("FEED_PAGE_SIZE must be between 1 and 100"))
	}
	if cfg.SubscriptionPollSeconds <= 0 {
		errs = append(errs, errors.New("SUBSCRIPTION_POLL_INTERVAL_SECONDS must be greater than 0"))
	}
	if cfg.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0"))
	}
	if cfg.AuthJWTSecret != "" && len(cfg.AuthJWTSecret) < 32 {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be at least 32 bytes"))
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) (int, error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s", key)
		}
		return i, nil
	}
	return defaultVal, nil
}

func getEnvAsBool(key string, defaultVal bool) (bool, error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("invalid boolean value for %s", key)
		}
		return b, nil
	}
	return defaultVal, nil
}
