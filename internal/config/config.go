package config

import (
	"os"
	"strconv"

	"kinact/domain/enrichment"
	"kinact/domain/scoring"
	"kinact/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Matrices MatrixConfig
	Defaults DefaultsConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the optional run-store connection
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// MatrixConfig holds the reference table locations per variant. The Tyr
// pair may be left empty when only the Ser/Thr panel is used.
type MatrixConfig struct {
	SerThrMatrix     string
	SerThrBackground string
	TyrMatrix        string
	TyrBackground    string
}

// DefaultsConfig holds the pipeline defaults applied when a request does
// not override them.
type DefaultsConfig struct {
	FCThreshold          float64
	PercentileCutoff     float64
	Method               string
	TopK                 int
	PromiscuityThreshold float64
	Workers              int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Matrices: MatrixConfig{
			SerThrMatrix:     os.Getenv("SER_THR_MATRIX"),
			SerThrBackground: os.Getenv("SER_THR_BACKGROUND"),
			TyrMatrix:        os.Getenv("TYR_MATRIX"),
			TyrBackground:    os.Getenv("TYR_BACKGROUND"),
		},
		Defaults: DefaultsConfig{
			FCThreshold:          getEnvFloatOrDefault("FC_THRESHOLD", 1.5),
			PercentileCutoff:     getEnvFloatOrDefault("PERCENTILE_CUTOFF", 90),
			Method:               getEnvOrDefault("AGGREGATION_METHOD", "avg"),
			TopK:                 getEnvIntOrDefault("TOP_K", 15),
			PromiscuityThreshold: getEnvFloatOrDefault("PROMISCUITY_THRESHOLD", 90),
			Workers:              getEnvIntOrDefault("SCORING_WORKERS", 0),
		},
	}
	config.Database.Enabled = config.Database.URL != ""

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Options maps the configured defaults onto run options.
func (c *Config) Options() enrichment.Options {
	return enrichment.Options{
		FCThreshold:      c.Defaults.FCThreshold,
		PercentileCutoff: c.Defaults.PercentileCutoff,
		Method:           scoring.Method(c.Defaults.Method),
		TopK:             c.Defaults.TopK,
	}
}

func validate(c *Config) error {
	if c.Matrices.SerThrMatrix == "" && c.Matrices.TyrMatrix == "" {
		return errors.ConfigInvalid("at least one of SER_THR_MATRIX or TYR_MATRIX is required")
	}
	if c.Matrices.SerThrMatrix != "" && c.Matrices.SerThrBackground == "" {
		return errors.ConfigInvalid("SER_THR_BACKGROUND is required when SER_THR_MATRIX is set")
	}
	if c.Matrices.TyrMatrix != "" && c.Matrices.TyrBackground == "" {
		return errors.ConfigInvalid("TYR_BACKGROUND is required when TYR_MATRIX is set")
	}
	if err := c.Options().Validate(); err != nil {
		return err
	}
	if c.Defaults.PromiscuityThreshold < 0 || c.Defaults.PromiscuityThreshold > 100 {
		return errors.ConfigInvalid("PROMISCUITY_THRESHOLD must be between 0 and 100")
	}
	if c.Defaults.Workers < 0 {
		return errors.ConfigInvalid("SCORING_WORKERS cannot be negative")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
