package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cadencelabs/cadence/internal/constants"
	"github.com/cadencelabs/cadence/internal/errors"
)

// GlobalConfigDir returns the path to the global Cadence configuration directory.
// This is typically ~/.cadence on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.CadenceHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration directory.
// This is always .cadence relative to the project root.
func ProjectConfigDir() string {
	return constants.CadenceHome
}

// GlobalConfigPath returns the full path to the global configuration file.
// This is typically ~/.cadence/config.yaml on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ProjectConfigPath returns the relative path to the project configuration file.
// This is always .cadence/config.yaml relative to the project root.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yaml")
}

// RunsDir returns the directory where pipeline run records are persisted.
// This is typically ~/.cadence/runs on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func RunsDir() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get runs dir: %w", err)
	}
	return filepath.Join(dir, constants.RunsDir), nil
}

// LogsDir returns the directory where Cadence writes its log files.
// This is typically ~/.cadence/logs on Unix systems.
//
// Returns an error if the home directory cannot be determined.
func LogsDir() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get logs dir: %w", err)
	}
	return filepath.Join(dir, constants.LogsDir), nil
}

// ResolveDataDir returns the effective provider data directory.
// An explicitly configured DataDir wins; otherwise the default
// ~/.cadence/data is used.
//
// Returns an error only if the default is needed and the home directory
// cannot be determined.
func (c *ProvidersConfig) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return filepath.Join(dir, constants.DataDir), nil
}
