package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	CatalogBaseURL    string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	RollupWindowDays  int
	RollupCron        string
	RetainMonths      int
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		CatalogBaseURL:    strings.TrimSpace(os.Getenv("CATALOG_BASE_URL")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		RollupWindowDays:  90,
		RollupCron:        envDefault("ROLLUP_CRON", "0 * * * *"),
	}
	if raw := strings.TrimSpace(os.Getenv("ROLLUP_WINDOW_DAYS")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			return Config{}, fmt.Errorf("ROLLUP_WINDOW_DAYS must be a positive integer")
		}
		cfg.RollupWindowDays = days
	}
	if raw := strings.TrimSpace(os.Getenv("PARTITION_RETAIN_MONTHS")); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil || months < 0 {
			return Config{}, fmt.Errorf("PARTITION_RETAIN_MONTHS must be a non-negative integer")
		}
		cfg.RetainMonths = months
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
