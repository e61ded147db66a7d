// Package paths resolves where daybook keeps its configuration and its host
// store.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform config and data roots.
const AppName = "daybook"

// Environment variables that override the directories.
const (
	EnvConfigDir = "DAYBOOK_CONFIG_DIR"
	EnvDataDir   = "DAYBOOK_DATA_DIR"
)

// HostStoreDirName is the subdirectory of the data directory holding the
// badger host store.
const HostStoreDirName = "store"

// platformDir can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/daybook (fallback ~/.config/daybook)
// macOS:   ~/Library/Application Support/daybook
// Windows: %APPDATA%/daybook
func DefaultConfigDir() (string, error) {
	return xdgOrUserDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/daybook (fallback ~/.local/share/daybook)
// macOS:   ~/Library/Application Support/daybook
// Windows: %APPDATA%/daybook
func DefaultDataDir() (string, error) {
	return xdgOrUserDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgOrUserDir(xdgVar, homeRel string) (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, homeRel, AppName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir applies flag > DAYBOOK_CONFIG_DIR > platform default.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config.yaml data_dir > DAYBOOK_DATA_DIR >
// platform default.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return DefaultDataDir()
}

// HostStoreDir returns the badger directory inside dataDir.
func HostStoreDir(dataDir string) string {
	return filepath.Join(dataDir, HostStoreDirName)
}
