// Package config loads the service configuration from defaults, YAML
// profiles under configs/ and APP_ environment variables, using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults other packages and tests refer to.
const (
	DefaultMaxRequestSize      = 1 << 20
	DefaultQuotationAPITimeout = 30 * time.Second
	DefaultCacheTTL            = 5 * time.Minute
	DefaultManagerRole         = "editor"
)

// Config is the whole service configuration.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Auth      AuthConfig      `koanf:"auth"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
	Services  ServicesConfig  `koanf:"services"  validate:"required"`
	Database  DatabaseConfig  `koanf:"database"  validate:"required"`
	Cache     CacheConfig     `koanf:"cache"`
	Events    EventsConfig    `koanf:"events"`
	Quotation QuotationConfig `koanf:"quotation" validate:"required"`
}

// AppConfig identifies the deployment.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig tunes the HTTP listener. MaxRequestSize caps request bodies.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig selects the level and format of the slog handler.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig tees logs into a lumberjack rolling file.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"       validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"   validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"    validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig points the OTLP exporters at a collector (a grpc URL).
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// AuthConfig names the headers the gateway uses to assert the signed-in
// account. Sessions are authenticated upstream.
type AuthConfig struct {
	SubjectHeader string `koanf:"subject_header" validate:"required"`
	RolesHeader   string `koanf:"roles_header"   validate:"required"`
}

// ClientConfig is shared by the host platform and quotation API clients.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig is the exponential backoff of host platform calls.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig configures the per-host breakers.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig sizes the idle connection pool.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"         validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"      validate:"required,min=1s"`
}

// ServicesConfig locates the host submission platform.
type ServicesConfig struct {
	Host ServiceEndpointConfig `koanf:"host" validate:"required"`
}

// ServiceEndpointConfig is a downstream base URL and the name used in logs.
type ServiceEndpointConfig struct {
	BaseURL string `koanf:"base_url" validate:"required,url"`
	Name    string `koanf:"name"     validate:"required"`
}

// DatabaseConfig selects the quotation store.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"            validate:"required,oneof=postgres sqlite3"`
	DSN             string        `koanf:"dsn"               validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns"    validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns"    validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// CacheConfig enables the Redis read-through cache of journal configurations.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	URL     string        `koanf:"url"     validate:"required_if=Enabled true"`
	Prefix  string        `koanf:"prefix"`
	TTL     time.Duration `koanf:"ttl"     validate:"omitempty,min=1s"`
}

// EventsConfig enables publishing quotation events to RabbitMQ.
type EventsConfig struct {
	Enabled  bool   `koanf:"enabled"`
	URL      string `koanf:"url"      validate:"required_if=Enabled true"`
	Exchange string `koanf:"exchange" validate:"required_if=Enabled true"`
}

// QuotationConfig holds fee quotation settings shared by all journals.
type QuotationConfig struct {
	APITimeout time.Duration `koanf:"api_timeout" validate:"required,min=1s"`

	// DefaultValidity sets the expiry of quotations whose API response has
	// none. Zero means such quotations never expire.
	DefaultValidity time.Duration `koanf:"default_validity" validate:"min=0"`

	// PublicURL is the externally visible origin used for webhook callback
	// URLs. Derived from each request when empty.
	PublicURL   string        `koanf:"public_url"   validate:"omitempty,url"`
	ManagerRole string        `koanf:"manager_role" validate:"required"`
	Webhook     WebhookConfig `koanf:"webhook"`
}

// WebhookConfig controls callback authentication.
type WebhookConfig struct {
	RequireSignature bool `koanf:"require_signature"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":        "fee-quotation-service",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/app.log",
		"log.file.max_size":    100,
		"log.file.max_backups": 3,
		"log.file.max_age":     28,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "fee-quotation-service",
		"telemetry.sampling_rate": 1.0,

		"auth.subject_header": "X-User-ID",
		"auth.roles_header":   "X-User-Roles",

		"client.timeout":                           "30s",
		"client.retry.max_attempts":                3,
		"client.retry.initial_interval":            "100ms",
		"client.retry.max_interval":                "5s",
		"client.retry.multiplier":                  2.0,
		"client.retry.jitter_factor":               0.25,
		"client.circuit_breaker.max_failures":      5,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   3,
		"client.transport.max_idle_conns":          100,
		"client.transport.max_idle_conns_per_host": 10,
		"client.transport.idle_conn_timeout":       "90s",

		"services.host.base_url": "http://localhost:8000",
		"services.host.name":     "host-platform",

		"database.driver":            "sqlite3",
		"database.dsn":               "file:fee-quotation.db?_foreign_keys=on",
		"database.max_open_conns":    10,
		"database.max_idle_conns":    5,
		"database.conn_max_lifetime": "30m",
		"database.auto_migrate":      true,

		"cache.enabled": false,
		"cache.url":     "",
		"cache.prefix":  "fee-quotation",
		"cache.ttl":     DefaultCacheTTL.String(),

		"events.enabled":  false,
		"events.url":      "",
		"events.exchange": "fee-quotation",

		"quotation.api_timeout":               DefaultQuotationAPITimeout.String(),
		"quotation.default_validity":          "0s",
		"quotation.public_url":                "",
		"quotation.manager_role":              DefaultManagerRole,
		"quotation.webhook.require_signature": true,
	}
}

// Load layers, lowest first: defaults, configs/base.yaml,
// configs/<profile>.yaml, then APP_ environment variables. Missing files are
// skipped. The result is not validated; call Validate.
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	files := []string{"configs/base.yaml"}
	if profile != "" {
		files = append(files, "configs/"+profile+".yaml")
	}

	for _, path := range files {
		if err := loadFileIfExists(k, path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("APP_", ".", envKey(k.Keys())), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

// envKey maps APP_ variables onto config keys. Keys containing underscores
// (APP_QUOTATION_API_TIMEOUT is quotation.api_timeout) are matched against the
// known keys; anything else has every underscore turned into a dot.
func envKey(known []string) func(string) string {
	byEnv := make(map[string]string, len(known))
	for _, key := range known {
		byEnv[strings.ReplaceAll(key, ".", "_")] = key
	}

	return func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, "APP_"))
		if key, ok := byEnv[name]; ok {
			return key
		}

		return strings.ReplaceAll(name, "_", ".")
	}
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
