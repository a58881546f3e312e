package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs at boot. Values come from the
// environment first; a YAML file named by BLUE_HARBOR_CONFIG overlays any
// field the environment left at its default.
type Config struct {
	ServerAddr      string `yaml:"serverAddr"`
	PostgresConnStr string `yaml:"postgresConnStr"`

	// DefaultFacility is stamped on ledger entries whose request did not
	// name a facility.
	DefaultFacility string `yaml:"defaultFacility"`

	// VendorBacklogRatio is the atVendor/conceptualTotal ratio above which
	// the reconciliation reporter raises a vendor-backlog alert.
	VendorBacklogRatio float64 `yaml:"vendorBacklogRatio"`

	// TransitionMaxRetries bounds the optimistic-lock retry loop.
	TransitionMaxRetries int           `yaml:"transitionMaxRetries"`
	TransitionRetryBase  time.Duration `yaml:"transitionRetryBase"`

	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:           envOr("SERVER_ADDR", "8080"),
		PostgresConnStr:      os.Getenv("POSTGRES_CONN_STR"),
		DefaultFacility:      envOr("DEFAULT_FACILITY", "main-building"),
		VendorBacklogRatio:   envFloatOr("VENDOR_BACKLOG_RATIO", 0.30),
		TransitionMaxRetries: envIntOr("TRANSITION_MAX_RETRIES", 5),
		TransitionRetryBase:  10 * time.Millisecond,
		ShutdownTimeout:      20 * time.Second,
	}

	if configFile := os.Getenv("BLUE_HARBOR_CONFIG"); configFile != "" {
		raw, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", configFile, err)
		}

		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", configFile, err)
		}
	}

	if cfg.PostgresConnStr == "" {
		return nil, fmt.Errorf("POSTGRES_CONN_STR is required")
	}

	return cfg, nil
}

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envIntOr(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func envFloatOr(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return v
}
