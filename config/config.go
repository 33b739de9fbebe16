// Package config resolves the relay configuration directory and the user key
// configuration.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the relay configuration directory.
// Respects XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "relay")
}

// ScriptsDir returns where user scripts live.
func ScriptsDir() string {
	return filepath.Join(Dir(), "scripts")
}

// KeysFile returns the path to the key configuration file.
func KeysFile() string {
	return filepath.Join(Dir(), "keys.json")
}

// StatePath returns the local persistence database path.
func StatePath() string {
	return filepath.Join(Dir(), "state.sqlite")
}
