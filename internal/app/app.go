// Package app wires configuration, the script catalog and the runner into the
// host the command line drives.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"codeberg.org/sigterm-de/boophost/assets"
	"codeberg.org/sigterm-de/boophost/internal/bridge"
	"codeberg.org/sigterm-de/boophost/internal/engine"
	"codeberg.org/sigterm-de/boophost/internal/history"
	"codeberg.org/sigterm-de/boophost/internal/logging"
	"codeberg.org/sigterm-de/boophost/internal/runner"
	"codeberg.org/sigterm-de/boophost/internal/scripts"
	"codeberg.org/sigterm-de/boophost/internal/status"
)

var (
	ErrUnknownScript = errors.New("unknown script")
	ErrScriptExists  = errors.New("script file already exists")
)

// Options controls how New sets the host up.
type Options struct {
	Version   string
	StatusOut io.Writer // status messages; os.Stdout when nil
	Verbose   bool      // log to stderr instead of the log file
}

// App is a fully wired host.
type App struct {
	Config  UserConfiguration
	Prefs   Preferences
	Catalog *scripts.Catalog
	Runner  *runner.Runner
	Status  status.Sink
	LogPath string
}

// New resolves configuration, starts logging, loads the scripts and builds
// the runner.
func New(opts Options) (*App, error) {
	cfg, err := NewUserConfiguration()
	if err != nil {
		return nil, fmt.Errorf("initialise configuration: %w", err)
	}

	var logPath string
	if opts.Verbose {
		logging.SetOutput(os.Stderr)
	} else if logPath, err = logging.Init(appName); err != nil {
		fmt.Fprintf(os.Stderr, "boophost: warning: cannot initialise logger: %v\n", err)
		logPath = ""
	}
	logging.Logf(logging.INFO, "", "boophost %s starting", opts.Version)

	stdout := opts.StatusOut
	if stdout == nil {
		stdout = os.Stdout
	}

	return build(cfg, LoadPreferences(cfg.PreferencesPath), status.NewConsole(stdout, logPath), logPath), nil
}

func build(cfg UserConfiguration, prefs Preferences, sink status.Sink, logPath string) *App {
	catalog := scripts.NewCatalog(scripts.NewLoader(assets.Scripts(), cfg.ScriptsDir, prefs.Enabled))
	for _, skipped := range catalog.Skipped() {
		logging.Log(logging.WARN, skipped, "script was skipped during load")
	}

	dispatcher := &runner.Dispatcher{
		Embedded: engine.New(engine.Options{
			Timeout:      prefs.ScriptTimeout(),
			FetchTimeout: prefs.FetchTimeout(),
		}),
		Bridge:    bridge.New(),
		Config:    prefs,
		Resources: NewResources(cfg.CacheDir, prefs),
	}

	return &App{
		Config:  cfg,
		Prefs:   prefs,
		Catalog: catalog,
		Runner:  runner.New(catalog, dispatcher, history.New(prefs.HistoryDepth())),
		Status:  sink,
		LogPath: logPath,
	}
}

// Script looks a script up by exact name.
func (a *App) Script(name string) (scripts.Script, error) {
	s, ok := a.Catalog.Find(name)
	if !ok {
		return scripts.Script{}, fmt.Errorf("%w: %q", ErrUnknownScript, name)
	}
	return s, nil
}

// SavePreferences persists a.Prefs.
func (a *App) SavePreferences() error {
	return SavePreferences(a.Config.PreferencesPath, a.Prefs)
}

// NewScript writes the new-script template for name into the user scripts
// directory and returns the file path. Existing files are never overwritten.
func (a *App) NewScript(name string) (string, error) {
	name = strings.TrimSpace(name)
	base := scriptFileName(name)
	if base == "" {
		return "", fmt.Errorf("script name %q has no usable characters", name)
	}
	path := filepath.Join(a.Config.ScriptsDir, base+".js")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%w: %s", ErrScriptExists, path)
	}
	if err != nil {
		return "", fmt.Errorf("create script: %w", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, scripts.NewScriptTemplate(name)); err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	return path, nil
}

// scriptFileName turns "Sort lines (desc)" into "SortLinesDesc".
func scriptFileName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
