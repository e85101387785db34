package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/power-fluctuation-advisory/internal/power"
)

var validate = validator.New()

type AppConfig struct {
	// Thresholds every upload is evaluated against unless the request overrides them.
	Thresholds power.Thresholds

	// In-memory report retention.
	ReportMaxHistory int           `validate:"gte=0"` // max number of reports kept (0 = unlimited)
	ReportMaxAge     time.Duration `validate:"gte=0"` // max age of reports (0 = unlimited)

	// PurgeInterval controls how often expired reports are dropped. The job runs
	// in whole minutes; 0 selects the scheduler default.
	PurgeInterval time.Duration `validate:"omitempty,min=1m"`

	MaxUploadBytes int `validate:"gt=0"`

	// AlertWebhookURL receives advisories; alerts are disabled when empty.
	AlertWebhookURL string `validate:"omitempty,url"`
	HTTPTimeout     time.Duration

	SampleSeed uint64

	Port string `validate:"required,numeric"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	var err error
	if cfg.Thresholds.Band.Low, err = getenvFloat("STABILITY_BAND_LOW", 215); err != nil {
		return nil, err
	}
	if cfg.Thresholds.Band.High, err = getenvFloat("STABILITY_BAND_HIGH", 245); err != nil {
		return nil, err
	}
	if cfg.Thresholds.NominalVoltage, err = getenvFloat("NOMINAL_VOLTAGE", 230); err != nil {
		return nil, err
	}

	cfg.ReportMaxHistory = getenvInt("REPORT_MAX_HISTORY", 100)
	if cfg.ReportMaxAge, err = getenvDuration("REPORT_MAX_AGE", "1h"); err != nil {
		return nil, err
	}
	if cfg.PurgeInterval, err = getenvDuration("PURGE_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.MaxUploadBytes = getenvInt("MAX_UPLOAD_BYTES", 10*1024*1024)
	cfg.AlertWebhookURL = os.Getenv("ALERT_WEBHOOK_URL")
	cfg.SampleSeed = uint64(getenvInt("SAMPLE_SEED", 42))
	cfg.Port = getenvDefault("PORT", "8080")

	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
