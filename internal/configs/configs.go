package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	RateLimit              int
	LogLevel               string
	LogDevelopment         bool
	RedisAddr              string
	NotifySink             string
	NotifyKeyPrefix        string
	DispatchWorkers        int
	DispatchQueueSize      int
	PollIntervalSeconds    int
	PollBatchSize          int
	EnforceOwnership       bool
	VerifyActorRole        bool
	ShutdownTimeoutSeconds int
}

const (
	SinkRedis = "redis"
	SinkLog   = "log"
)

func Load() (Config, error) {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	var errs []error
	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:            getEnv("DATABASE_DSN", "review.db"),
		RateLimit:              getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60, &errs),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogDevelopment:         getEnvAsBool("LOG_DEVELOPMENT", false, &errs),
		RedisAddr:              fmt.Sprintf("%s:%s", redisHost, redisPort),
		NotifySink:             getEnv("NOTIFY_SINK", SinkLog),
		NotifyKeyPrefix:        getEnv("NOTIFY_KEY_PREFIX", "notifications"),
		DispatchWorkers:        getEnvAsInt("DISPATCH_WORKERS", 2, &errs),
		DispatchQueueSize:      getEnvAsInt("DISPATCH_QUEUE_SIZE", 100, &errs),
		PollIntervalSeconds:    getEnvAsInt("DISPATCH_POLL_INTERVAL_SECONDS", 10, &errs),
		PollBatchSize:          getEnvAsInt("DISPATCH_POLL_BATCH_SIZE", 50, &errs),
		EnforceOwnership:       getEnvAsBool("REVIEW_ENFORCE_OWNERSHIP", false, &errs),
		VerifyActorRole:        getEnvAsBool("REVIEW_VERIFY_ACTOR_ROLE", false, &errs),
		ShutdownTimeoutSeconds: getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 20, &errs),
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN must not be empty")
	}
	if cfg.RateLimit <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0")
	}
	if cfg.DispatchWorkers <= 0 {
		return errors.New("DISPATCH_WORKERS must be greater than 0")
	}
	if cfg.DispatchQueueSize <= 0 {
		return errors.New("DISPATCH_QUEUE_SIZE must be greater than 0")
	}
	if cfg.PollIntervalSeconds <= 0 {
		return errors.New("DISPATCH_POLL_INTERVAL_SECONDS must be greater than 0")
	}
	if cfg.PollBatchSize <= 0 {
		return errors.New("DISPATCH_POLL_BATCH_SIZE must be greater than 0")
	}
	if cfg.NotifySink != SinkRedis && cfg.NotifySink != SinkLog {
		return fmt.Errorf("NOTIFY_SINK must be %q or %q", SinkRedis, SinkLog)
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int, errs *[]error) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid integer value for %s", key))
			return defaultVal
		}
		return i
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool, errs *[]error) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid boolean value for %s", key))
			return defaultVal
		}
		return b
	}
	return defaultVal
}
