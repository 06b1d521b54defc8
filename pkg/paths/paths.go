package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// DirName is the directory created under each XDG base directory.
	DirName = "slack-send"

	// LogFileName is the name of the log file inside StateDir.
	LogFileName = "slack-send.log"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// ConfigFileNames are the user config files looked up in ConfigDir, in order.
var ConfigFileNames = []string{"config.toml", "config.yaml", "config.yml"}

// ConfigDir returns the user configuration directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, DirName)
}

// StateDir returns the directory for state such as logs.
func StateDir() string {
	return filepath.Join(xdg.StateHome, DirName)
}

// LogFilePath returns the path to the log file
// e.g. ~/.local/state/slack-send/slack-send.log
func LogFilePath() string {
	return filepath.Join(StateDir(), LogFileName)
}

// ConfigFiles returns the candidate user config files in lookup order.
func ConfigFiles() []string {
	dir := ConfigDir()
	out := make([]string, len(ConfigFileNames))
	for i, name := range ConfigFileNames {
		out[i] = filepath.Join(dir, name)
	}
	return out
}

// ExpandHome expands a leading ~ to the home directory. "~user" forms are
// returned unchanged.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to HOME env var
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAll applies ExpandHome to every entry.
func ExpandAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = ExpandHome(p)
	}
	return out
}
