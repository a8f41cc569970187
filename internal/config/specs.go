// Copyright 2026 Pulsewatch Authors
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	// BaseURL is used to build absolute links, e.g. invitation accept URLs.
	BaseURL string `envconfig:"base_url" default:"http://localhost:8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`

	RedisAddr     string        `envconfig:"redis_addr" default:"localhost:6379"`
	RedisPassword string        `envconfig:"redis_password"`
	SessionTTL    time.Duration `envconfig:"session_ttl" default:"720h"`

	JWTSecret     string        `envconfig:"jwt_secret" required:"true"`
	TokenLifetime time.Duration `envconfig:"token_lifetime" default:"24h"`
	CookieSecure  bool          `envconfig:"cookie_secure" default:"false"`

	InvitationLifetime time.Duration `envconfig:"invitation_lifetime" default:"168h"`

	MailEndpoint string `envconfig:"mail_endpoint"`
	MailAPIKey   string `envconfig:"mail_api_key"`
	MailFrom     string `envconfig:"mail_from" default:"no-reply@pulsewatch.io"`
}
