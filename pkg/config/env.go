package config

const (
	EnvFile = "ENV_FILE"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvWebhookSecret = "BOOKING_WEBHOOK_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultSlotCapacity  = "DEFAULT_SLOT_CAPACITY"
	EnvDefaultJoinable      = "DEFAULT_SLOT_JOINABLE"
	EnvDefaultTimezone      = "DEFAULT_TIMEZONE"
	EnvDefaultPolicy        = "DEFAULT_CONFLICT_POLICY"
	EnvInsertChunkSize      = "SLOT_INSERT_CHUNK_SIZE"
	EnvMaxBatchRangeDays    = "MAX_BATCH_RANGE_DAYS"
	EnvRecomputeMaxAttempts = "RECOMPUTE_MAX_ATTEMPTS"

	EnvAdminRoles = "ADMIN_ROLES"

	EnvReconcileCron      = "RECONCILE_CRON"
	EnvReconcileLookBack  = "RECONCILE_LOOK_BACK"
	EnvReconcileLookAhead = "RECONCILE_LOOK_AHEAD"
	EnvReconcileTimeout   = "RECONCILE_TIMEOUT"
)
