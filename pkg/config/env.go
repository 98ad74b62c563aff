package config

// Environment keys. The struct tags in Config must stay in sync with these.
const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvJWTSecret = "JWT_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvWSSendBuffer    = "WS_SEND_BUFFER"
	EnvWSMaxFrameBytes = "WS_MAX_FRAME_BYTES"
	EnvHookTimeout     = "HOOK_TIMEOUT"

	EnvEventsEnabled      = "EVENTS_ENABLED"
	EnvEventsTopic        = "EVENTS_TOPIC"
	EnvStatsConsumerGroup = "STATS_CONSUMER_GROUP"
)
