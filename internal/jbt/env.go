package jbt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenGG/jbtool/internal/jbt/paths"
)

// Environment variables read by jbtool.
const (
	EnvHome           = "JBTOOL_HOME"
	EnvConfigRoot     = "JBTOOL_CONFIG_ROOT"
	EnvConfigDir      = "JBTOOL_CONFIG_DIR"
	EnvNonInteractive = "JBTOOL_NON_INTERACTIVE"
)

// ResolveToolHome returns $JBTOOL_HOME, or jbtool/ under the user config directory.
func ResolveToolHome() (string, error) {
	if custom := strings.TrimSpace(os.Getenv(EnvHome)); custom != "" {
		return custom, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, paths.ToolDirName), nil
}

// ResolveConfigRoot returns $JBTOOL_CONFIG_ROOT, or the JetBrains directory under the
// user config directory where the IDEs keep one config directory per product version.
func ResolveConfigRoot() (string, error) {
	if custom := strings.TrimSpace(os.Getenv(EnvConfigRoot)); custom != "" {
		return custom, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, paths.JetBrainsDir), nil
}

// IsNonInteractive reports whether prompting is disabled.
func IsNonInteractive() bool {
	return os.Getenv(EnvNonInteractive) == "1"
}

// ConfigDirFromEnv returns $JBTOOL_CONFIG_DIR, used when --config-dir is omitted
// in non-interactive runs.
func ConfigDirFromEnv() (string, bool) {
	value := strings.TrimSpace(os.Getenv(EnvConfigDir))
	if value == "" {
		return "", false
	}
	return value, true
}
