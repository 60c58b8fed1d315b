package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/cams/internal/core/config"
)

// Flags holds the global options shared by every cams command.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	// DataDir holds cams.db and any corrupt database moved aside on recovery.
	DataDir string

	// Config is set by the root Before hook once the file has been loaded
	// and validated.
	Config *config.Config
}

// DefaultConfigPath is where cams looks for its YAML config when neither
// --config nor CAMS_CONFIG is set: $XDG_CONFIG_HOME/cams/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "cams", "config.yaml")
}

// DefaultDataDir is the directory holding the review database when neither
// --data-dir nor CAMS_DATA_DIR is set: $XDG_DATA_HOME/cams.
func DefaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "cams")
}

// xdgDir returns $env, or fallback joined under the home directory.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, fallback...)...)
}
