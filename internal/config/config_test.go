package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, defaultUserAgent, cfg.HTTPUserAgent)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.CatalogEnabled)
	assert.Empty(t, cfg.CatalogKafkaBrokers)
	assert.Equal(t, "dataset-updates", cfg.CatalogKafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/data/public")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("HTTP_USER_AGENT", "covid-etl/1.0")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("CATALOG_KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("CATALOG_KAFKA_TOPIC", "grapher-datasets")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/public", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "covid-etl/1.0", cfg.HTTPUserAgent)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushgatewayURL)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.CatalogEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.CatalogKafkaBrokers)
	assert.Equal(t, "grapher-datasets", cfg.CatalogKafkaTopic)
}

func TestLoad_CatalogExplicitlyDisabled(t *testing.T) {
	t.Setenv("CATALOG_KAFKA_BROKERS", "broker1:9092")
	t.Setenv("CATALOG_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.CatalogEnabled)
}

func TestLoad_CatalogEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("CATALOG_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_KAFKA_BROKERS")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"HTTP timeout not a duration", "HTTP_TIMEOUT", "soon"},
		{"HTTP timeout zero", "HTTP_TIMEOUT", "0s"},
		{"HTTP timeout negative", "HTTP_TIMEOUT", "-1s"},
		{"log format", "LOG_FORMAT", "xml"},
		{"catalog flag", "CATALOG_ENABLED", "maybe"},
		{"shutdown timeout", "SHUTDOWN_TIMEOUT", "not-a-duration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
