package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"clubschedule/pkg/client"
	"clubschedule/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port      string
	LogLevel  string
	LogFormat string

	WebhookSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultSlotCapacity  int
	DefaultJoinable      bool
	DefaultTimezone      string
	DefaultPolicy        string
	InsertChunkSize      int
	MaxBatchRangeDays    int
	RecomputeMaxAttempts int

	AdminRoles []string

	ReconcileCron      string
	ReconcileLookBack  time.Duration
	ReconcileLookAhead time.Duration
	ReconcileTimeout   time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the optional .env file, then the environment, and exits on invalid settings.
func Load(serviceName string) *Config {
	dotEnvErr := loadDotEnv()

	cfg := FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if dotEnvErr != nil {
		cfg.Log.Warn("Failed to load env file", "error", dotEnvErr)
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func loadDotEnv() error {
	path := getEnvStr(EnvFile, DefaultEnvFile)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// FromEnv builds a Config from environment variables without validating it.
func FromEnv() *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		WebhookSecret: getEnvStr(EnvWebhookSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultSlotCapacity:  getEnvNum(EnvDefaultSlotCapacity, DefaultDefaultSlotCapacity),
		DefaultJoinable:      getEnvBool(EnvDefaultJoinable, DefaultDefaultJoinable),
		DefaultTimezone:      getEnvStr(EnvDefaultTimezone, DefaultDefaultTimezone),
		DefaultPolicy:        getEnvStr(EnvDefaultPolicy, DefaultDefaultPolicy),
		InsertChunkSize:      getEnvNum(EnvInsertChunkSize, DefaultInsertChunkSize),
		MaxBatchRangeDays:    getEnvNum(EnvMaxBatchRangeDays, DefaultMaxBatchRangeDays),
		RecomputeMaxAttempts: getEnvNum(EnvRecomputeMaxAttempts, DefaultRecomputeMaxAttempts),

		AdminRoles: getEnvList(EnvAdminRoles, DefaultAdminRoles),

		ReconcileCron:      getEnvStr(EnvReconcileCron, DefaultReconcileCron),
		ReconcileLookBack:  getEnvDuration(EnvReconcileLookBack, DefaultReconcileLookBack),
		ReconcileLookAhead: getEnvDuration(EnvReconcileLookAhead, DefaultReconcileLookAhead),
		ReconcileTimeout:   getEnvDuration(EnvReconcileTimeout, DefaultReconcileTimeout),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"ReconcileLookAhead", cfg.ReconcileLookAhead},
		{"ReconcileTimeout", cfg.ReconcileTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}
	if cfg.ReconcileLookBack < 0 {
		errors = append(errors, fmt.Sprintf("ReconcileLookBack cannot be negative, got: %s", cfg.ReconcileLookBack))
	}
	if cfg.WriteTimeout > 0 && cfg.RequestTimeout >= cfg.WriteTimeout {
		errors = append(errors, fmt.Sprintf("RequestTimeout (%s) must be shorter than WriteTimeout (%s)", cfg.RequestTimeout, cfg.WriteTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.DefaultSlotCapacity <= 0 {
		errors = append(errors, fmt.Sprintf("DefaultSlotCapacity must be positive, got: %d", cfg.DefaultSlotCapacity))
	}
	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil || cfg.DefaultTimezone == "" {
		errors = append(errors, fmt.Sprintf("DefaultTimezone must be an IANA zone name, got: %q", cfg.DefaultTimezone))
	}
	switch cfg.DefaultPolicy {
	case "skip", "protect", "replace":
	default:
		errors = append(errors, fmt.Sprintf("DefaultPolicy must be one of skip, protect, replace, got: %s", cfg.DefaultPolicy))
	}
	if cfg.InsertChunkSize <= 0 || cfg.InsertChunkSize > 1000 {
		errors = append(errors, fmt.Sprintf("InsertChunkSize must be between 1 and 1000, got: %d", cfg.InsertChunkSize))
	}
	if cfg.MaxBatchRangeDays <= 0 {
		errors = append(errors, fmt.Sprintf("MaxBatchRangeDays must be positive, got: %d", cfg.MaxBatchRangeDays))
	}
	if cfg.RecomputeMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("RecomputeMaxAttempts must be positive, got: %d", cfg.RecomputeMaxAttempts))
	}

	if len(cfg.AdminRoles) == 0 {
		errors = append(errors, "AdminRoles cannot be empty")
	}
	if _, err := cron.ParseStandard(cfg.ReconcileCron); err != nil {
		errors = append(errors, fmt.Sprintf("ReconcileCron is not a valid cron expression (%s): %v", cfg.ReconcileCron, err))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"webhook_secret_set", cfg.WebhookSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_slot_capacity", cfg.DefaultSlotCapacity,
		"default_joinable", cfg.DefaultJoinable,
		"default_timezone", cfg.DefaultTimezone,
		"default_policy", cfg.DefaultPolicy,
		"insert_chunk_size", cfg.InsertChunkSize,
		"max_batch_range_days", cfg.MaxBatchRangeDays,
		"recompute_max_attempts", cfg.RecomputeMaxAttempts,
		"admin_roles", cfg.AdminRoles,
		"reconcile_cron", cfg.ReconcileCron,
		"reconcile_look_back", cfg.ReconcileLookBack,
		"reconcile_look_ahead", cfg.ReconcileLookAhead,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

// Location returns the default timezone, falling back to UTC.
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
