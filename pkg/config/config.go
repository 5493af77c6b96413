// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Input and output locations
	CSVPath   string `yaml:"csv_path"`
	OutputDir string `yaml:"output_dir"`
	WebDir    string `yaml:"web_dir"`

	// Forecast settings
	CurrentYear       int   `yaml:"current_year"`
	ForecastHorizon   int   `yaml:"forecast_horizon"`
	TrainingStartYear int   `yaml:"training_start_year"`
	OutlierYears      []int `yaml:"outlier_years"`

	// StrictDecode makes cell decode failures visible as errors instead of
	// silently defaulting. Output consumers rely on the defaulting
	// behavior, so this stays off outside tests.
	StrictDecode bool `yaml:"strict_decode"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		// Default values
		CSVPath:           getEnv("CSV_PATH", "Suchliste.csv"),
		OutputDir:         getEnv("OUTPUT_DIR", "output"),
		WebDir:            getEnv("WEB_DIR", "web/data"),
		CurrentYear:       getEnvAsInt("CURRENT_YEAR", 2025),
		ForecastHorizon:   getEnvAsInt("FORECAST_HORIZON", 10),
		TrainingStartYear: getEnvAsInt("TRAINING_START_YEAR", 2000),
		OutlierYears:      getEnvAsInts("OUTLIER_YEARS", []int{2020, 2021}),
		StrictDecode:      getEnvAsBool("STRICT_DECODE", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfigFile loads configuration from environment variables, then
// overlays values from a YAML file.
func LoadConfigFile(path string) (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(payload, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.CSVPath == "" {
		return errors.New("csv path is required")
	}

	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}

	if c.CurrentYear < 1980 || c.CurrentYear > 2100 {
		return fmt.Errorf("current year %d is out of range", c.CurrentYear)
	}

	if c.ForecastHorizon <= 0 {
		return errors.New("forecast horizon must be positive")
	}

	if c.TrainingStartYear >= c.CurrentYear {
		return errors.New("training start year must precede the current year")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInts(key string, defaultValue []int) []int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var values []int
	for _, part := range strings.Split(valueStr, ",") {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		values = append(values, value)
	}
	return values
}
