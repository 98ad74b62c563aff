package kafka_config

// Header values stamped on every message this module produces.
const (
	SchemaVersion = "1"
	SourceName    = "servicely"
)
