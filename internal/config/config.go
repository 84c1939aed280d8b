// Package config loads catalogd's runtime settings from a YAML file,
// environment variables (CATALOG_* prefix), and built-in defaults, using
// viper the way the teacher project wires configuration for its own
// commands (cmd/bd/config.go).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Settings is catalogd's complete runtime configuration.
type Settings struct {
	Server     ServerSettings
	Postgres   PostgresSettings
	EventBus   EventBusSettings
	Authority  AuthoritySettings
	Logging    LoggingSettings
	Telemetry  TelemetrySettings
	Limits     LimitSettings
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Host string
	Port int
}

// Addr returns the host:port the HTTP server should bind.
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresSettings configures the metadata store connection.
type PostgresSettings struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DSN renders the libpq connection string pgx expects.
func (p PostgresSettings) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// EventBusSettings configures the item-record publisher.
type EventBusSettings struct {
	URL     string
	Subject string
}

// AuthoritySettings configures the external permission-decision service.
type AuthoritySettings struct {
	BaseURL      string
	RSAPublicKey string
	Timeout      time.Duration
}

// LoggingSettings configures the zap logger.
type LoggingSettings struct {
	Level string
	JSON  bool
}

// Build constructs the process zap.Logger from these settings: JSON
// encoding for production, console encoding otherwise, matching the
// teacher's convention of shipping structured logs by default.
func (l LoggingSettings) Build() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if !l.JSON {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// TelemetrySettings configures the OpenTelemetry exporters.
type TelemetrySettings struct {
	Enabled        bool
	OTLPEndpoint   string
	ServiceName    string
	StdoutFallback bool
}

// LimitSettings carries the catalog's fixed capacity caps.
type LimitSettings struct {
	MaxTags            int
	MaxSystemTags       int
	MaxAttributeLength  int
	MaxCollectionsPerOwner int
}

const envPrefix = "CATALOG"

// Load builds Settings from defaults, an optional config file at path (may
// be empty to skip), and CATALOG_*-prefixed environment variables, with env
// taking precedence over the file.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	s := &Settings{
		Server: ServerSettings{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		Postgres: PostgresSettings{
			Host:     v.GetString("postgres.host"),
			Port:     v.GetInt("postgres.port"),
			User:     v.GetString("postgres.user"),
			Password: v.GetString("postgres.password"),
			Database: v.GetString("postgres.database"),
			SSLMode:  v.GetString("postgres.sslmode"),
			MaxConns: int32(v.GetInt("postgres.max_conns")),
		},
		EventBus: EventBusSettings{
			URL:     v.GetString("eventbus.url"),
			Subject: v.GetString("eventbus.subject"),
		},
		Authority: AuthoritySettings{
			BaseURL:      v.GetString("authority.base_url"),
			RSAPublicKey: v.GetString("authority.rsa_public_key"),
			Timeout:      v.GetDuration("authority.timeout"),
		},
		Logging: LoggingSettings{
			Level: v.GetString("logging.level"),
			JSON:  v.GetBool("logging.json"),
		},
		Telemetry: TelemetrySettings{
			Enabled:        v.GetBool("telemetry.enabled"),
			OTLPEndpoint:   v.GetString("telemetry.otlp_endpoint"),
			ServiceName:    v.GetString("telemetry.service_name"),
			StdoutFallback: v.GetBool("telemetry.stdout_fallback"),
		},
		Limits: LimitSettings{
			MaxTags:                v.GetInt("limits.max_tags"),
			MaxSystemTags:          v.GetInt("limits.max_system_tags"),
			MaxAttributeLength:     v.GetInt("limits.max_attribute_length"),
			MaxCollectionsPerOwner: v.GetInt("limits.max_collections_per_owner"),
		},
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "catalog")
	v.SetDefault("postgres.database", "catalog")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)

	v.SetDefault("eventbus.url", "nats://localhost:4222")
	v.SetDefault("eventbus.subject", "metadata.items")

	v.SetDefault("authority.timeout", 5*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", true)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "catalogd")
	v.SetDefault("telemetry.stdout_fallback", true)

	// Caps mirror the original service's fixed constants.
	v.SetDefault("limits.max_tags", 10)
	v.SetDefault("limits.max_system_tags", 10)
	v.SetDefault("limits.max_attribute_length", 100)
	v.SetDefault("limits.max_collections_per_owner", 5)
}

// Validate rejects settings combinations that would fail at runtime in a
// confusing way rather than at startup.
func (s *Settings) Validate() error {
	if s.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", s.Server.Port)
	}
	if s.Limits.MaxTags <= 0 || s.Limits.MaxSystemTags <= 0 {
		return fmt.Errorf("tag limits must be positive")
	}
	if s.Limits.MaxCollectionsPerOwner <= 0 {
		return fmt.Errorf("limits.max_collections_per_owner must be positive")
	}
	return nil
}
