// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

// Package config loads passgate settings from a YAML file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"net"
	"net/url"
	"time"

	"github.com/samber/oops"

	"github.com/passgate/passgate/internal/mail"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config is the full service configuration.
type Config struct {
	Log     LogConfig     `koanf:"log" json:"log"`
	HTTP    HTTPConfig    `koanf:"http" json:"http"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics"`
	Tracing TracingConfig `koanf:"tracing" json:"tracing"`
	Auth    AuthConfig    `koanf:"auth" json:"auth"`
	Store   StoreConfig   `koanf:"store" json:"store"`
	Mail    mail.Config   `koanf:"mail" json:"mail"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Format string `koanf:"format" json:"format" jsonschema:"enum=json,enum=text,default=json"`
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr" json:"addr" jsonschema:"default=:5000"`
	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout,omitempty" jsonschema:"type=string"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout,omitempty" jsonschema:"type=string"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" json:"idle_timeout,omitempty" jsonschema:"type=string"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout,omitempty" jsonschema:"type=string"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" json:"max_body_bytes,omitempty" jsonschema:"minimum=1"`
	// Mode is the gin mode: release, debug or test.
	Mode string `koanf:"mode" json:"mode,omitempty" jsonschema:"enum=release,enum=debug,enum=test"`
}

// MetricsConfig controls the observability listener. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr" jsonschema:"default=127.0.0.1:9100"`
}

// TracingConfig controls OTLP export. An empty endpoint disables export.
type TracingConfig struct {
	Endpoint    string  `koanf:"endpoint" json:"endpoint,omitempty"`
	Insecure    bool    `koanf:"insecure" json:"insecure,omitempty"`
	SampleRatio float64 `koanf:"sample_ratio" json:"sample_ratio,omitempty" jsonschema:"minimum=0,maximum=1"`
}

// AuthConfig holds the token secret and flow settings.
type AuthConfig struct {
	JWTSecret           string `koanf:"jwt_secret" json:"jwt_secret" jsonschema:"description=HMAC signing secret for session and reset tokens"`
	ResetURL            string `koanf:"reset_url" json:"reset_url" jsonschema:"format=uri"`
	BcryptCost          int    `koanf:"bcrypt_cost" json:"bcrypt_cost,omitempty" jsonschema:"minimum=4,maximum=31"`
	MaxConcurrentHashes int    `koanf:"max_concurrent_hashes" json:"max_concurrent_hashes,omitempty" jsonschema:"minimum=0"`
}

// StoreConfig selects the account store.
type StoreConfig struct {
	Driver          string `koanf:"driver" json:"driver" jsonschema:"enum=memory,enum=postgres,enum=mongo,default=memory"`
	PostgresURL     string `koanf:"postgres_url" json:"postgres_url,omitempty"`
	MongoURI        string `koanf:"mongo_uri" json:"mongo_uri,omitempty"`
	MongoDatabase   string `koanf:"mongo_database" json:"mongo_database,omitempty"`
	ConnectAttempts uint64 `koanf:"connect_attempts" json:"connect_attempts,omitempty"`
	AutoMigrate     bool   `koanf:"auto_migrate" json:"auto_migrate,omitempty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "json"},
		HTTP: HTTPConfig{
			Addr:            ":5000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    1 << 20,
			Mode:            "release",
		},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Tracing: TracingConfig{SampleRatio: 1},
		Auth: AuthConfig{
			ResetURL:   "http://localhost:3000/reset-password",
			BcryptCost: 10,
		},
		Store: StoreConfig{
			Driver:          DriverMemory,
			MongoDatabase:   "passgate",
			ConnectAttempts: 5,
			AutoMigrate:     true,
		},
		Mail: mail.Config{
			Provider: mail.ProviderLog,
			From:     "noreply@passgate.local",
			Timeout:  mail.DefaultTimeout,
		},
	}
}

// Validate reports the first setting that would stop the service from
// starting.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return invalid("auth.jwt_secret", "signing secret is required (set PASSGATE_AUTH__JWT_SECRET or JWT_SECRET)")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return invalid("auth.bcrypt_cost", "must be between 4 and 31")
	}
	if _, err := url.ParseRequestURI(c.Auth.ResetURL); err != nil {
		return invalid("auth.reset_url", "must be an absolute URL")
	}
	if _, _, err := net.SplitHostPort(c.HTTP.Addr); err != nil {
		return invalid("http.addr", "must be host:port")
	}
	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return invalid("metrics.addr", "must be host:port")
		}
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return invalid("tracing.sample_ratio", "must be between 0 and 1")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.PostgresURL == "" {
			return invalid("store.postgres_url", "required for the postgres driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return invalid("store.mongo_uri", "required for the mongo driver")
		}
		if c.Store.MongoDatabase == "" {
			return invalid("store.mongo_database", "required for the mongo driver")
		}
	default:
		return invalid("store.driver", "must be memory, postgres or mongo")
	}

	if c.Mail.From == "" {
		return invalid("mail.from", "sender address is required")
	}
	return nil
}

func invalid(key, reason string) error {
	return oops.Code("CONFIG_INVALID").
		With("key", key).
		Errorf("%s: %s", key, reason)
}
