// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	StoreXLSX   = "xlsx"
	StoreSQLite = "sqlite"
)

type Config struct {
	Port     string
	LogLevel string

	// OrderStore selects the order store adapter: xlsx or sqlite.
	OrderStore string
	OrdersFile string
	OrdersDB   string

	SendGridAPIKey   string
	SendGridFrom     string
	SendGridFromName string

	TwilioSID   string
	TwilioToken string
	TwilioFrom  string

	// RedisAddr backs the idempotency cache. Empty selects the in-process cache.
	RedisAddr      string
	IdempotencyTTL time.Duration

	NotifyTimeout   time.Duration
	ShutdownTimeout time.Duration

	// OTLPEndpoint enables tracing when set.
	OTLPEndpoint string
	ServiceName  string
	Environment  string
}

// Load reads the environment. Only malformed values are errors; anything
// unset falls back to its default.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OrderStore: strings.ToLower(getEnv("ORDER_STORE", StoreXLSX)),
		OrdersFile: getEnv("ORDERS_FILE", "orders.xlsx"),
		OrdersDB:   getEnv("ORDERS_DB", "orders.db"),

		SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		SendGridFrom:     os.Getenv("SENDGRID_FROM"),
		SendGridFromName: getEnv("SENDGRID_FROM_NAME", "Storefront"),

		TwilioSID:   os.Getenv("TWILIO_SID"),
		TwilioToken: os.Getenv("TWILIO_TOKEN"),
		TwilioFrom:  os.Getenv("TWILIO_FROM"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "storefront"),
		Environment:  getEnv("OTEL_RESOURCE_ATTRIBUTES_ENV", "local"),
	}

	var err error
	if cfg.NotifyTimeout, err = getDuration("NOTIFY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	switch cfg.OrderStore {
	case StoreXLSX, StoreSQLite:
	default:
		return nil, fmt.Errorf("config: ORDER_STORE must be %q or %q, got %q", StoreXLSX, StoreSQLite, cfg.OrderStore)
	}
	return cfg, nil
}

func (c *Config) Addr() string { return ":" + c.Port }

// EmailEnabled reports whether SendGrid credentials are complete.
func (c *Config) EmailEnabled() bool {
	return c.SendGridAPIKey != "" && c.SendGridFrom != ""
}

// SMSEnabled reports whether Twilio credentials are complete.
func (c *Config) SMSEnabled() bool {
	return c.TwilioSID != "" && c.TwilioToken != "" && c.TwilioFrom != ""
}

func (c *Config) TracingEnabled() bool { return c.OTLPEndpoint != "" }

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}
