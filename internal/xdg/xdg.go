// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

// Package xdg resolves XDG Base Directory paths for authplay.
package xdg

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "authplay"

// ConfigFileName is the file looked up in ConfigDir when no --config is given.
const ConfigFileName = "config.yaml"

// Getenv looks up an environment variable. os.Getenv satisfies it.
type Getenv func(string) string

// ConfigDir returns the XDG config directory for authplay.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir(getenv Getenv) string {
	base := getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns the path of the per-user config file if it
// exists, or "" otherwise.
func DefaultConfigFile(getenv Getenv) string {
	path := filepath.Join(ConfigDir(getenv), ConfigFileName)
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// FromEnviron builds a Getenv over a KEY=value list such as os.Environ().
func FromEnviron(environ []string) Getenv {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if name, value, ok := strings.Cut(kv, "="); ok {
			vars[name] = value
		}
	}
	return func(key string) string { return vars[key] }
}
