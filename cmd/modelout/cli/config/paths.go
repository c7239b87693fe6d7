// Package config provides configuration management for the modelout CLI.
package config

import (
	"os"
	"path/filepath"
)

// Dir returns the modelout config directory.
// Uses XDG_CONFIG_HOME/modelout, defaulting to ~/.config/modelout.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "modelout"), nil
}
