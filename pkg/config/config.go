package config

import (
	"fmt"
	"lodgebook/pkg/client"
	"lodgebook/pkg/logger"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port     string
	LogLevel string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// ReserveLockTTL bounds how long a per-lodging booking lock may be
	// held before the TTL monitor reaps it.
	ReserveLockTTL time.Duration

	// CancellationNoticeHours is the minimum notice before check-in for a
	// guest-initiated cancellation. Zero disables the rule. Refund-driven
	// cancellations ignore it.
	CancellationNoticeHours int

	DefaultPageLimit int
	MaxPageLimit     int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:     getEnvStr(EnvPort, DefaultPort),
		LogLevel: getEnvStr(EnvLogLevel, DefaultLogLevel),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		ReserveLockTTL:          getEnvDuration(EnvReserveLockTTL, DefaultReserveLockTTL),
		CancellationNoticeHours: getEnvNum(EnvCancellationNoticeHours, DefaultCancellationNoticeHours),

		DefaultPageLimit: getEnvNum(EnvDefaultPageLimit, DefaultDefaultPageLimit),
		MaxPageLimit:     getEnvNum(EnvMaxPageLimit, DefaultMaxPageLimit),

		Client: client.NewClient(),
	}

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	return cfg
}

// SetMongo connects the shared Mongo client; fatal on failure.
func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}
	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.ReserveLockTTL <= 0 {
		errs = append(errs, fmt.Sprintf("ReserveLockTTL must be positive, got: %s", cfg.ReserveLockTTL))
	}
	if cfg.CancellationNoticeHours < 0 {
		errs = append(errs, fmt.Sprintf("CancellationNoticeHours cannot be negative, got: %d", cfg.CancellationNoticeHours))
	}
	if cfg.DefaultPageLimit < 1 || cfg.DefaultPageLimit > cfg.MaxPageLimit {
		errs = append(errs, fmt.Sprintf("DefaultPageLimit must be in [1, %d], got: %d", cfg.MaxPageLimit, cfg.DefaultPageLimit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded",
		"mongo_database", cfg.MongoDatabaseName,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"reserve_lock_ttl", cfg.ReserveLockTTL,
		"cancellation_notice_hours", cfg.CancellationNoticeHours,
	)
}

// NormalizePaginationLimit clamps a caller-supplied page limit.
func (cfg *Config) NormalizePaginationLimit(limit int) int {
	if limit < 1 {
		return cfg.DefaultPageLimit
	}
	if limit > cfg.MaxPageLimit {
		return cfg.MaxPageLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	if offset < 0 {
		return 0
	}
	return offset
}

func getEnvStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
