// Package common provides shared configuration, logging, and utilities
// across the application.
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment  string             `toml:"environment"` // "development" or "production"
	Server       ServerConfig       `toml:"server"`
	Storage      StorageConfig      `toml:"storage"`
	Logging      LoggingConfig      `toml:"logging"`
	Anticipation AnticipationConfig `toml:"anticipation"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration.
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for log lines
}

// AnticipationConfig controls the anticipation worker and the detectors'
// threshold policies. Durations are TOML duration strings ("5m", "72h").
type AnticipationConfig struct {
	Enabled  bool          `toml:"enabled"`
	Interval time.Duration `toml:"interval" validate:"min=10s"` // cycle interval

	// Detector thresholds. Each detector reads only its own settings.
	DeadlineLookAhead time.Duration `toml:"deadline_look_ahead"` // urgent window before a task deadline
	EventLookAhead    time.Duration `toml:"event_look_ahead"`    // urgent window before a calendar event
	EmailAgingAfter   time.Duration `toml:"email_aging_after"`   // unanswered email age before attention
	EmailUrgentAfter  time.Duration `toml:"email_urgent_after"`  // unanswered email age before urgent
	DealStaleAfter    time.Duration `toml:"deal_stale_after"`    // deal inactivity before attention
	DealClosingWindow time.Duration `toml:"deal_closing_window"` // window before expected close date
	StreakRiskWindow  time.Duration `toml:"streak_risk_window"`  // window before end of day
	BillDueWindow     time.Duration `toml:"bill_due_window"`     // window before a bill due date
	SignalTTL         time.Duration `toml:"signal_ttl"`          // default signal expiry
}

// NewDefaultConfig creates a configuration with default values.
// Detector thresholds are tuned for a once-per-five-minutes cycle; only
// user-facing settings belong in auspex.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Anticipation: AnticipationConfig{
			Enabled:           true,
			Interval:          5 * time.Minute,
			DeadlineLookAhead: 2 * time.Hour,
			EventLookAhead:    2 * time.Hour,
			EmailAgingAfter:   72 * time.Hour,
			EmailUrgentAfter:  7 * 24 * time.Hour,
			DealStaleAfter:    14 * 24 * time.Hour,
			DealClosingWindow: 7 * 24 * time.Hour,
			StreakRiskWindow:  4 * time.Hour,
			BillDueWindow:     7 * 24 * time.Hour,
			SignalTTL:         24 * time.Hour,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// An empty path skips the file layer.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration against its struct tags.
func Validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies AUSPEX_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("AUSPEX_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("AUSPEX_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("AUSPEX_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("AUSPEX_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("AUSPEX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if enabled := os.Getenv("AUSPEX_ANTICIPATION_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Anticipation.Enabled = b
		}
	}
	if interval := os.Getenv("AUSPEX_ANTICIPATION_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Anticipation.Interval = d
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority).
// Zero values mean "not provided".
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}
