package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		MongoURI:          DefaultMongoURI,
		MongoDatabaseName: DefaultMongoDatabaseName,
		MongoConnTimeout:  DefaultMongoConnTimeout,
		Port:              DefaultPort,
		RateLimitRequests: DefaultRateLimitRequests,
		RateLimitWindow:   DefaultRateLimitWindow,
		RequestTimeout:    DefaultRequestTimeout,
		IdempotencyTTL:    DefaultIdempotencyTTL,
		MaxRequestSize:    DefaultMaxRequestSize,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
		WSSendBuffer:      DefaultWSSendBuffer,
		WSMaxFrameBytes:   DefaultWSMaxFrameBytes,
		HookTimeout:       DefaultHookTimeout,
		EventsTopic:       DefaultEventsTopic,
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %q, want %q", cfg.Port, DefaultPort)
	}
	if cfg.HookTimeout != DefaultHookTimeout {
		t.Errorf("HookTimeout = %s, want %s", cfg.HookTimeout, DefaultHookTimeout)
	}
	if cfg.MaxRequestSize != DefaultMaxRequestSize {
		t.Errorf("MaxRequestSize = %d, want %d", cfg.MaxRequestSize, DefaultMaxRequestSize)
	}
	if cfg.EventsTopic != DefaultEventsTopic {
		t.Errorf("EventsTopic = %q, want %q", cfg.EventsTopic, DefaultEventsTopic)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvRequestTimeout, "2s")
	t.Setenv(EnvEventsEnabled, "true")
	t.Setenv(EnvJWTSecret, "s3cret")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.RequestTimeout != 2*time.Second {
		t.Errorf("RequestTimeout = %s, want 2s", cfg.RequestTimeout)
	}
	if !cfg.EventsEnabled {
		t.Error("EventsEnabled should be true")
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	t.Setenv(EnvHookTimeout, "soon")

	if _, err := Parse(); err == nil {
		t.Fatal("expected parse error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = "70000" }, wantErr: "Port must be between"},
		{name: "bad mongo scheme", mutate: func(c *Config) { c.MongoURI = "postgres://localhost" }, wantErr: "MongoURI must start"},
		{name: "empty database", mutate: func(c *Config) { c.MongoDatabaseName = "" }, wantErr: "MongoDatabaseName"},
		{name: "zero hook timeout", mutate: func(c *Config) { c.HookTimeout = 0 }, wantErr: "HookTimeout must be positive"},
		{name: "tiny frames", mutate: func(c *Config) { c.WSMaxFrameBytes = 10 }, wantErr: "WSMaxFrameBytes"},
		{name: "events without topic", mutate: func(c *Config) { c.EventsEnabled = true; c.EventsTopic = "" }, wantErr: "EventsTopic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "0"
	cfg.RateLimitRequests = 0
	cfg.ReadTimeout = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"1. Port", "2. ReadTimeout", "3. RateLimitRequests"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:hunter2@db:27017/servicely")
	if strings.Contains(got, "hunter2") || strings.Contains(got, "admin") {
		t.Errorf("credentials leaked: %s", got)
	}
	if got != "mongodb://***:***@db:27017/servicely" {
		t.Errorf("unexpected redaction: %s", got)
	}
}

func TestNormalizePagination(t *testing.T) {
	if got := NormalizePaginationLimit(0); got != MinPaginationLimit {
		t.Errorf("limit 0 -> %d, want %d", got, MinPaginationLimit)
	}
	if got := NormalizePaginationLimit(1000); got != DefaultPaginationLimit {
		t.Errorf("limit 1000 -> %d, want %d", got, DefaultPaginationLimit)
	}
	if got := NormalizePaginationLimit(25); got != 25 {
		t.Errorf("limit 25 -> %d", got)
	}
	if got := NormalizeOffset(-5); got != 0 {
		t.Errorf("offset -5 -> %d", got)
	}
}
