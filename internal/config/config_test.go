package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks range validations and default filling.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Empty config is valid and gets defaults.
	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultAlarmsFilename, cfg.AlarmsFile)
	require.Equal(t, DefaultRingTimeout, cfg.RingTimeout)

	// Negative tolerance.
	cfg = &Config{Tolerance: -time.Second}
	require.Error(t, Validate(cfg))

	// Unknown log level.
	cfg = &Config{LogLevel: "loud"}
	require.Error(t, Validate(cfg))

	// Zero tolerance is allowed: it disables the premature-fire check.
	cfg = &Config{Tolerance: 0, LogLevel: "debug"}
	require.NoError(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		AlarmsFile:     filepath.Join(dir, "alarms.json"),
		Tolerance:      45 * time.Second,
		RingTimeout:    90 * time.Second,
		MaxAutoSnoozes: 1,
		LogLevel:       "debug",
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

// TestLoad_PartialFileKeepsDefaults ensures a config that sets only some
// keys does not zero out the rest, in particular the tolerance window.
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), DefaultFilePermissions))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultTolerance, loaded.Tolerance)
	require.Equal(t, DefaultRingTimeout, loaded.RingTimeout)
	require.Equal(t, DefaultMaxAutoSnoozes, loaded.MaxAutoSnoozes)
	require.Equal(t, DefaultAlarmsFilename, loaded.AlarmsFile)
	require.Equal(t, "info", loaded.LogLevel)

	// An explicit zero still disables the premature-fire check.
	path = filepath.Join(dir, "zero.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tolerance: 0s\n"), DefaultFilePermissions))

	loaded, err = Load(path)
	require.NoError(t, err)
	require.Zero(t, loaded.Tolerance)
}

// TestLoad_MissingFileYieldsDefaults verifies the out-of-the-box path.
func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	loaded, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), loaded)
}
