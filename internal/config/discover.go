package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./config.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "nzzel", "config.toml")
}

// ErrNotFound is returned by Discover when no config file exists.
var ErrNotFound = errors.New("config not found")

// SearchPaths lists the files Discover checks when NZZEL_CONFIG is unset.
func SearchPaths() []string {
	return []string{
		"./config.toml",
		DefaultPath(),
		"/etc/nzzel/config.toml",
	}
}

// Discover finds the config file using the standard search order.
// Search order:
//  1. NZZEL_CONFIG environment variable
//  2. ./config.toml (current directory)
//  3. $XDG_CONFIG_HOME/nzzel/config.toml
//  4. /etc/nzzel/config.toml
func Discover() (string, error) {
	if envPath := os.Getenv("NZZEL_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("NZZEL_CONFIG=%s: %w", envPath, err)
		}
		return envPath, nil
	}

	paths := SearchPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w, checked: %s", ErrNotFound, strings.Join(paths, ", "))
}
