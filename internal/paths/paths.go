// Package paths resolves the configuration and library directory locations.
//
// Each directory is taken from the first source that is set: a command-line
// flag, then (for the library) config.yaml, then an environment variable,
// then the platform default. Relative paths are made absolute and a leading
// "~" is expanded to the user's home directory.
package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appName = "shoebox"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "SHOEBOX_CONFIG_DIR"
	EnvDataDir   = "SHOEBOX_DATA_DIR"
)

// platform holds the OS facts the defaults depend on. Tests replace it.
var platform = struct {
	goos          string
	getenv        func(string) string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	getenv:        os.Getenv,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/shoebox (fallback ~/.config/shoebox)
// macOS:   ~/Library/Application Support/shoebox
// Windows: %APPDATA%/shoebox
func DefaultConfigDir() (string, error) {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default library directory.
//
// Linux:   $XDG_DATA_HOME/shoebox (fallback ~/.local/share/shoebox)
// macOS:   ~/Library/Application Support/shoebox/library
// Windows: %APPDATA%/shoebox/library
//
// On macOS and Windows configuration and data share a parent, so the
// library gets its own subdirectory.
func DefaultDataDir() (string, error) {
	dir, err := appDir("XDG_DATA_HOME", ".local", "share")
	if err != nil {
		return "", err
	}
	if platform.goos != "linux" {
		dir = filepath.Join(dir, "library")
	}
	return dir, nil
}

// appDir returns the shoebox directory under $xdgEnv, or under the home
// directory joined with fallback, on Linux; and under the user config
// directory elsewhere.
func appDir(xdgEnv string, fallback ...string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := platform.getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > SHOEBOX_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := first(flag, platform.getenv(EnvConfigDir)); ok || err != nil {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the library directory following the precedence
// chain: flag > configValue (data_dir in config.yaml) > SHOEBOX_DATA_DIR env
// > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok, err := first(flag, configValue, platform.getenv(EnvDataDir)); ok || err != nil {
		return dir, err
	}
	return DefaultDataDir()
}

// first returns the absolute, home-expanded form of the first non-empty
// candidate. ok is false when every candidate is empty.
func first(candidates ...string) (dir string, ok bool, err error) {
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		expanded, err := ExpandHome(c)
		if err != nil {
			return "", true, err
		}
		abs, err := filepath.Abs(expanded)
		return abs, true, err
	}
	return "", false, nil
}

// ErrNoHome is returned when a path starts with "~" and the home directory
// cannot be determined.
var ErrNoHome = errors.New("cannot expand ~: home directory unknown")

// ExpandHome replaces a leading "~" or "~/" in path with the user's home
// directory. Other paths, including "~user", are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := platform.homeDir()
	if err != nil || home == "" {
		return "", ErrNoHome
	}
	return filepath.Join(home, path[1:]), nil
}
