package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alarmd/alarmd/internal/logger"
)

// Config holds settings shared by the alarmd subcommands.
type Config struct {
	// AlarmsFile is the path to the JSON file storing alarm records.
	AlarmsFile string `yaml:"alarms_file"`
	// Tolerance is the window within which an early fire callback is still
	// considered plausible. Zero disables the premature-fire check.
	Tolerance time.Duration `yaml:"tolerance"`
	// RingTimeout is how long a ringing alarm waits for acknowledgement
	// before the daemon snoozes or dismisses it.
	RingTimeout time.Duration `yaml:"ring_timeout"`
	// MaxAutoSnoozes caps consecutive unacknowledged snoozes per alarm.
	MaxAutoSnoozes int `yaml:"max_auto_snoozes"`
	// LogLevel is the minimum level for log output (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for daemon settings.
	DefaultConfigFilename = "alarmd-settings.yaml"

	// DefaultAlarmsFilename is the default filename for alarm records JSON.
	DefaultAlarmsFilename = "alarmd-alarms.json"

	// DefaultTolerance is the default premature-fire tolerance window.
	DefaultTolerance = 30 * time.Second

	// DefaultRingTimeout is the default unacknowledged ring duration.
	DefaultRingTimeout = time.Minute

	// DefaultMaxAutoSnoozes is the default cap on consecutive auto-snoozes.
	DefaultMaxAutoSnoozes = 3

	// DefaultFilePermissions is the default file permission for written files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeTolerance is returned when the tolerance window is negative.
	errNegativeTolerance = errors.New("tolerance must not be negative")
	// errUnknownLogLevel is returned when the log level cannot be parsed.
	errUnknownLogLevel = errors.New("unknown log level")
)

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		AlarmsFile:     DefaultAlarmsFilename,
		Tolerance:      DefaultTolerance,
		RingTimeout:    DefaultRingTimeout,
		MaxAutoSnoozes: DefaultMaxAutoSnoozes,
	}
}

// Load reads configuration from the provided path and validates essential
// fields. A missing file is not an error: defaults are returned so the tool
// works out of the box.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	// Unmarshal over defaults: keys absent from the file keep their default
	// values, while an explicit `tolerance: 0` still disables the
	// premature-fire check.
	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults for
// unspecified fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.AlarmsFile == "" {
		cfg.AlarmsFile = DefaultAlarmsFilename
	}

	if cfg.Tolerance < 0 {
		return errNegativeTolerance
	}

	if cfg.RingTimeout <= 0 {
		cfg.RingTimeout = DefaultRingTimeout
	}

	if cfg.MaxAutoSnoozes < 0 {
		cfg.MaxAutoSnoozes = DefaultMaxAutoSnoozes
	}

	if cfg.LogLevel != "" {
		if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("%w: %q", errUnknownLogLevel, cfg.LogLevel)
		}
	}

	return nil
}
