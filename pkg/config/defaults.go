package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "servicely"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultWSSendBuffer    = 64
	DefaultWSMaxFrameBytes = 64 * 1024
	DefaultHookTimeout     = 5 * time.Second

	DefaultEventsTopic        = "marketplace.events"
	DefaultStatsConsumerGroup = "stats-projector"

	DefaultPaginationLimit = 100
	MinPaginationLimit     = 10
)
