package config

import "time"

const (
	DefaultEnvFile = ".env"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "clubschedule"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 35 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultDefaultSlotCapacity  = 4
	DefaultDefaultJoinable      = true
	DefaultDefaultTimezone      = "Europe/Madrid"
	DefaultDefaultPolicy        = "skip"
	DefaultInsertChunkSize      = 200
	DefaultMaxBatchRangeDays    = 366
	DefaultRecomputeMaxAttempts = 3

	DefaultAdminRoles = "admin,staff"

	DefaultReconcileCron      = "*/15 * * * *"
	DefaultReconcileLookBack  = 24 * time.Hour
	DefaultReconcileLookAhead = 60 * 24 * time.Hour
	DefaultReconcileTimeout   = 5 * time.Minute
)
