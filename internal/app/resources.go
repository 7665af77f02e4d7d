package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"codeberg.org/sigterm-de/boophost/assets"
	"codeberg.org/sigterm-de/boophost/internal/logging"
	"codeberg.org/sigterm-de/boophost/internal/runner"
	"codeberg.org/sigterm-de/boophost/internal/scripts"
)

const embeddedPrefix = "embedded:"

// Resources puts the files external runtimes need on disk: bridge launchers,
// the @boop/ library and built-in scripts all live in the embedded assets and
// are written below the cache directory on first use.
type Resources struct {
	cacheDir string
	prefs    Preferences
	bridges  fs.FS
	lib      fs.FS

	libOnce sync.Once
	libDir  string
}

// NewResources extracts into cacheDir. Launcher overrides come from prefs.
func NewResources(cacheDir string, prefs Preferences) *Resources {
	return &Resources{cacheDir: cacheDir, prefs: prefs, bridges: assets.Bridges(), lib: assets.Lib()}
}

// Launcher returns the user's launcher override for in when it exists, the
// extracted bundled launcher otherwise.
func (r *Resources) Launcher(in scripts.Interpreter) (string, error) {
	if override, ok := r.prefs.LauncherOverride(in); ok {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%w: %s: %v", runner.ErrLauncherMissing, in, err)
		}
		return override, nil
	}

	rel := in.Launcher()
	if rel == "" {
		return "", fmt.Errorf("%w: %s has no launcher", runner.ErrLauncherMissing, in)
	}
	data, err := fs.ReadFile(r.bridges, rel)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", runner.ErrLauncherMissing, in, err)
	}
	dst := filepath.Join(r.cacheDir, filepath.FromSlash(rel))
	if err := writeFile(dst, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", runner.ErrLauncherMissing, in, err)
	}
	return dst, nil
}

// LibDir returns the directory holding the extracted @boop/ modules, or ""
// when extraction failed.
func (r *Resources) LibDir() string {
	r.libOnce.Do(func() {
		dir := filepath.Join(r.cacheDir, "lib")
		err := fs.WalkDir(r.lib, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			data, err := fs.ReadFile(r.lib, p)
			if err != nil {
				return err
			}
			return writeFile(filepath.Join(dir, filepath.FromSlash(p)), data)
		})
		if err != nil {
			logging.Logf(logging.WARN, "", "extract lib: %v", err)
			return
		}
		r.libDir = dir
	})
	return r.libDir
}

// ScriptFile returns the on-disk path of s, writing built-in scripts below
// the cache directory first.
func (r *Resources) ScriptFile(s scripts.Script) (string, error) {
	rel, ok := strings.CutPrefix(s.Path, embeddedPrefix)
	if !ok {
		return s.Path, nil
	}
	dst := filepath.Join(r.cacheDir, "scripts", filepath.FromSlash(rel))
	if err := writeFile(dst, []byte(s.Source)); err != nil {
		return "", fmt.Errorf("extract %s: %w", s.Name, err)
	}
	return dst, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
