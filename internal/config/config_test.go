package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	for _, k := range []string{"SERVICE_NAME", "HTTP_ADDR", "GATEWAY_TIMEOUT", "PRINT_DIR", "NOTIFICATION_FEED_SIZE", "STOCK_API_URL",
		"NOTIFICATION_QUEUE_SIZE", "NOTIFICATION_HANDLER_CONCURRENCY", "NOTIFICATION_HANDLER_TIMEOUT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg := LoadEnv()
	assert.Equal(t, "notafiscal-console", cfg.Server.ServiceName)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "http://localhost:3000/", cfg.Gateway.StockURL)
	assert.Empty(t, cfg.Printer.Dir)
	assert.Equal(t, 50, cfg.Notifications.FeedSize)
	assert.Equal(t, 256, cfg.Notifications.QueueSize)
	assert.Equal(t, 1, cfg.Notifications.HandlerConcurrency)
	assert.Equal(t, 5*time.Second, cfg.Notifications.HandlerTimeout)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("GATEWAY_TIMEOUT", "45")
	t.Setenv("NOTIFICATION_FEED_SIZE", "not-a-number")
	t.Setenv("PRINT_DIR", " /tmp/invoices ")

	cfg := LoadEnv()
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, 45*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 50, cfg.Notifications.FeedSize)
	assert.Equal(t, "/tmp/invoices", cfg.Printer.Dir)

	t.Setenv("NOTIFICATION_HANDLER_TIMEOUT", "2s")
	t.Setenv("NOTIFICATION_HANDLER_CONCURRENCY", "3")
	assert.Equal(t, 2*time.Second, LoadEnv().Notifications.HandlerTimeout)
	assert.Equal(t, 3, LoadEnv().Notifications.HandlerConcurrency)

	t.Setenv("GATEWAY_TIMEOUT", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, LoadEnv().Gateway.Timeout)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.env")
	require.NoError(t, os.WriteFile(path, []byte("BILLING_API_URL=http://billing:3001/\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("BILLING_API_URL", "")
	require.NoError(t, os.Unsetenv("BILLING_API_URL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://billing:3001/", cfg.Gateway.BillingURL)
	assert.Equal(t, "warn", cfg.Logger.Level, "environment wins over the file")

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
