// Package paths resolves where uartspy keeps its profile and logs.
//
// Two layouts are supported:
//
//   - Legacy (~/.uartspy/): profile.yaml and logs/ side by side
//   - XDG: profile under XDG_CONFIG_HOME/uartspy, logs under XDG_STATE_HOME/uartspy
//
// Resolution order:
//  1. If ~/.uartspy/ exists → legacy layout
//  2. If XDG_CONFIG_HOME or XDG_STATE_HOME is set → XDG layout
//  3. Otherwise → ~/.uartspy/
package paths

import (
	"os"
	"path/filepath"
	"sync"
)

const appDir = "uartspy"

var (
	mu       sync.Mutex
	resolved *resolvedPaths
)

type resolvedPaths struct {
	configDir string
	stateDir  string
	legacy    bool
}

// resolve computes the path layout once and caches it.
func resolve() (*resolvedPaths, error) {
	mu.Lock()
	defer mu.Unlock()

	if resolved != nil {
		return resolved, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	legacyDir := filepath.Join(home, "."+appDir)

	if info, err := os.Stat(legacyDir); err == nil && info.IsDir() {
		resolved = &resolvedPaths{configDir: legacyDir, stateDir: legacyDir, legacy: true}
		return resolved, nil
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	xdgState := os.Getenv("XDG_STATE_HOME")

	if xdgConfig != "" || xdgState != "" {
		if xdgConfig == "" {
			xdgConfig = filepath.Join(home, ".config")
		}
		if xdgState == "" {
			xdgState = filepath.Join(home, ".local", "state")
		}
		resolved = &resolvedPaths{
			configDir: filepath.Join(xdgConfig, appDir),
			stateDir:  filepath.Join(xdgState, appDir),
		}
		return resolved, nil
	}

	resolved = &resolvedPaths{configDir: legacyDir, stateDir: legacyDir, legacy: true}
	return resolved, nil
}

// ConfigDir returns the directory holding profile.yaml.
func ConfigDir() (string, error) {
	r, err := resolve()
	if err != nil {
		return "", err
	}
	return r.configDir, nil
}

// StateDir returns the directory for logs and transcripts.
func StateDir() (string, error) {
	r, err := resolve()
	if err != nil {
		return "", err
	}
	return r.stateDir, nil
}

// ProfilePath returns the full path to the default session profile.
func ProfilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profile.yaml"), nil
}

// LogsDir returns the directory for log files.
func LogsDir() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs"), nil
}

// IsLegacyLayout returns true if using the ~/.uartspy/ flat layout.
func IsLegacyLayout() bool {
	r, err := resolve()
	if err != nil {
		return true
	}
	return r.legacy
}

// Reset clears the cached path resolution. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	resolved = nil
}
