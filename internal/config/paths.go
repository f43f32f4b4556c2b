// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shopfront Contributors

package config

import (
	"os"
	"path/filepath"
)

const appName = "shopfront"

// ConfigDir returns the XDG config directory for shopfront. It checks
// XDG_CONFIG_HOME first and falls back to ~/.config; it returns "" when
// neither is known.
func ConfigDir(getenv func(string) string) string {
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		home := getenv("HOME")
		if home == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultFile returns the config file read when --config is not given, or
// "" if there is none on disk.
func DefaultFile(getenv func(string) string) string {
	dir := ConfigDir(getenv)
	if dir == "" {
		return ""
	}
	path := filepath.Join(dir, "config.yaml")
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return ""
	}
	return path
}

// lookupFunc returns a getenv over environ, or os.Getenv for a nil map.
func lookupFunc(environ map[string]string) func(string) string {
	if environ == nil {
		return os.Getenv
	}
	return func(key string) string { return environ[key] }
}
