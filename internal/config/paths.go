// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "passgate"

// Dir returns the XDG config directory for passgate.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// ResolvePath returns explicit when set. Otherwise it returns DefaultPath if
// that file exists, or "" to run on defaults and environment alone.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	path := DefaultPath()
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return path, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	default:
		// Unreadable is not the same as absent; surface it.
		return "", oops.Code("CONFIG_READ_FAILED").With("path", path).Wrap(err)
	}
}
