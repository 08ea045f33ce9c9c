package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig
	Logger        LoggerConfig
	Gateway       GatewayConfig
	Printer       PrinterConfig
	Notifications NotificationConfig
	Telemetry     TelemetryConfig
}

type ServerConfig struct {
	ServiceName string
	Env         string
	HTTPAddr    string
}

type LoggerConfig struct {
	Level    string
	Encoding string
	File     string
}

type GatewayConfig struct {
	StockURL   string
	BillingURL string
	Timeout    time.Duration
}

type PrinterConfig struct {
	Dir string
}

type NotificationConfig struct {
	FeedSize int
	// outbox bus tuning
	QueueSize          int
	HandlerConcurrency int
	HandlerTimeout     time.Duration
}

type TelemetryConfig struct {
	OTLPEndpoint string
}

// Load reads files (default ".env") when present, then the environment.
// Variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return LoadEnv(), nil
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			ServiceName: getEnv("SERVICE_NAME", "notafiscal-console"),
			Env:         getEnv("ENV", "dev"),
			HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
			File:     getEnv("LOG_FILE", ""),
		},
		Gateway: GatewayConfig{
			StockURL:   getEnv("STOCK_API_URL", "http://localhost:3000/"),
			BillingURL: getEnv("BILLING_API_URL", "http://localhost:3001/"),
			Timeout:    getEnvDuration("GATEWAY_TIMEOUT", 30*time.Second),
		},
		Printer: PrinterConfig{
			Dir: getEnv("PRINT_DIR", ""),
		},
		Notifications: NotificationConfig{
			FeedSize:           getEnvInt("NOTIFICATION_FEED_SIZE", 50),
			QueueSize:          getEnvInt("NOTIFICATION_QUEUE_SIZE", 256),
			HandlerConcurrency: getEnvInt("NOTIFICATION_HANDLER_CONCURRENCY", 1),
			HandlerTimeout:     getEnvDuration("NOTIFICATION_HANDLER_TIMEOUT", 5*time.Second),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
