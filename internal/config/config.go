package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/oakfield-care/rosterkit/pkg/core/timeutil"
)

// ExtraShiftOverride defines extra-day shifts added on top of a carer's
// regular pattern, as a recurrence rule plus a daily working interval.
type ExtraShiftOverride struct {
	RRule   string `yaml:"rrule" validate:"required"`
	CarerID string `yaml:"carerID" validate:"required"`
	Begin   string `yaml:"begin" validate:"required"`
	End     string `yaml:"end" validate:"required"`
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL" validate:"required"`

	MaxConcurrentWorkers int `yaml:"maxConcurrentWorkers,omitempty" validate:"omitempty,min=1"`

	ClusterDistanceThreshold float64 `yaml:"clusterDistanceThreshold,omitempty" validate:"omitempty,gt=0"`

	WinsorizeTail           float64 `yaml:"winsorizeTail,omitempty" validate:"omitempty,gte=0,lt=0.5"`
	ForecastLookbackDays    int     `yaml:"forecastLookbackDays,omitempty" validate:"omitempty,min=7"`
	ForecastDensityRatio    float64 `yaml:"forecastDensityRatio,omitempty" validate:"omitempty,gt=0,lte=1"`
	MinVisitDurationMinutes float64 `yaml:"minVisitDurationMinutes,omitempty" validate:"omitempty,gte=0"`

	ExtraShiftOverrides []ExtraShiftOverride `yaml:"extraShiftOverrides,omitempty" validate:"dive"`

	ReportSheetID string `yaml:"reportSheetID,omitempty"`
	GmailUserID   string `yaml:"gmailUserID,omitempty"`
	GmailSender   string `yaml:"gmailSender,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from rosterkit_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule and clock
// syntax for each extra-shift override.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, override := range cfg.ExtraShiftOverrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in extraShiftOverrides[%d]: %w", i, err)
		}
		begin, err := timeutil.ParseTimeOfDay(override.Begin)
		if err != nil {
			return fmt.Errorf("invalid begin in extraShiftOverrides[%d]: %w", i, err)
		}
		end, err := timeutil.ParseTimeOfDay(override.End)
		if err != nil {
			return fmt.Errorf("invalid end in extraShiftOverrides[%d]: %w", i, err)
		}
		if end < begin {
			return fmt.Errorf("extraShiftOverrides[%d]: end %s before begin %s", i, override.End, override.Begin)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.MaxConcurrentWorkers == 0 {
		cfg.MaxConcurrentWorkers = 8
	}
	if cfg.ClusterDistanceThreshold == 0 {
		cfg.ClusterDistanceThreshold = 120.5
	}
	if cfg.WinsorizeTail == 0 {
		cfg.WinsorizeTail = 0.05
	}
	if cfg.ForecastLookbackDays == 0 {
		cfg.ForecastLookbackDays = 60
	}
	if cfg.ForecastDensityRatio == 0 {
		cfg.ForecastDensityRatio = 0.75
	}
	if cfg.MinVisitDurationMinutes == 0 {
		cfg.MinVisitDurationMinutes = 5
	}
}

// findConfigFile searches for rosterkit_config.yaml in current directory and home directory
func findConfigFile() (string, error) {
	configFileName := "rosterkit_config.yaml"

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file not found in current directory or home directory")
}
