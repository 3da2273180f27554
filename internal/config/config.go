package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Config holds all run settings, populated from environment variables.
type Config struct {
	OutputDir string
	LogLevel  string
	LogFormat string

	HTTPTimeout   time.Duration
	HTTPUserAgent string

	// PushgatewayURL enables pushing run metrics when set.
	PushgatewayURL string
	// ShutdownTimeout bounds the end-of-run flush: metrics push and
	// catalog writer close.
	ShutdownTimeout time.Duration

	// Dataset catalog announcements over Kafka.
	CatalogEnabled      bool
	CatalogKafkaBrokers []string
	CatalogKafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeoutStr := sharedcfg.EnvOrDefault("HTTP_TIMEOUT", "30s")
	httpTimeout, err := time.ParseDuration(httpTimeoutStr)
	if err != nil || httpTimeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q", httpTimeoutStr)
	}

	var brokers []string
	if s := strings.TrimSpace(os.Getenv("CATALOG_KAFKA_BROKERS")); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}
	catalogEnabled := len(brokers) > 0
	if v := os.Getenv("CATALOG_ENABLED"); v != "" {
		catalogEnabled, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CATALOG_ENABLED %q", v)
		}
	}

	cfg := &Config{
		OutputDir:           sharedcfg.EnvOrDefault("OUTPUT_DIR", "output"),
		LogLevel:            sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPTimeout:         httpTimeout,
		HTTPUserAgent:       sharedcfg.EnvOrDefault("HTTP_USER_AGENT", defaultUserAgent),
		PushgatewayURL:      os.Getenv("PUSHGATEWAY_URL"),
		ShutdownTimeout:     shutdownTimeout,
		CatalogEnabled:      catalogEnabled,
		CatalogKafkaBrokers: brokers,
		CatalogKafkaTopic:   sharedcfg.EnvOrDefault("CATALOG_KAFKA_TOPIC", "dataset-updates"),
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", cfg.LogFormat)
	}
	if cfg.CatalogEnabled && len(cfg.CatalogKafkaBrokers) == 0 {
		return nil, errors.New("CATALOG_ENABLED is true but CATALOG_KAFKA_BROKERS is not set")
	}
	if cfg.CatalogEnabled && cfg.CatalogKafkaTopic == "" {
		return nil, errors.New("CATALOG_KAFKA_TOPIC is required")
	}

	return cfg, nil
}
