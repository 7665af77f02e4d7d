package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "boophost"

// UserConfiguration holds runtime paths resolved from the XDG Base Directory
// specification.
type UserConfiguration struct {
	ScriptsDir      string // ~/.config/boophost/scripts/
	PreferencesPath string // ~/.config/boophost/preferences.json
	CacheDir        string // ~/.cache/boophost/ (extracted launchers and lib)
}

// NewUserConfiguration resolves XDG paths, creates the scripts directory if
// absent, and returns a ready-to-use configuration.
func NewUserConfiguration() (UserConfiguration, error) {
	scriptsDir := filepath.Join(xdg.ConfigHome, appName, "scripts")
	if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
		return UserConfiguration{}, fmt.Errorf("config: create scripts dir: %w", err)
	}

	prefsPath, err := xdg.ConfigFile(filepath.Join(appName, "preferences.json"))
	if err != nil {
		return UserConfiguration{}, fmt.Errorf("config: resolve preferences path: %w", err)
	}

	return UserConfiguration{
		ScriptsDir:      scriptsDir,
		PreferencesPath: prefsPath,
		CacheDir:        filepath.Join(xdg.CacheHome, appName),
	}, nil
}
