package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/sigterm-de/boophost/internal/engine"
	"codeberg.org/sigterm-de/boophost/internal/history"
	"codeberg.org/sigterm-de/boophost/internal/scripts"
)

// Preferences holds persistent user-configurable settings.
type Preferences struct {
	History  HistoryPreferences `json:"history"`
	Timeouts TimeoutPreferences `json:"timeouts"`

	// Require is the global require keyword for external runtimes. A
	// per-runtime keyword wins over it.
	Require string `json:"require_keyword,omitempty"`

	// Runtimes is keyed by interpreter id ("py", "lua", ...).
	Runtimes map[string]RuntimePreferences `json:"runtimes,omitempty"`
}

type HistoryPreferences struct {
	Depth int `json:"depth"`
}

// TimeoutPreferences are Go duration strings ("5s", "1m30s").
type TimeoutPreferences struct {
	Script string `json:"script"`
	Fetch  string `json:"fetch"`
}

// RuntimePreferences overrides how one external interpreter is invoked.
// Every runtime is enabled unless Disabled is set.
type RuntimePreferences struct {
	Disabled bool   `json:"disabled,omitempty"`
	Path     string `json:"path,omitempty"`     // runtime command, may carry leading arguments
	Launcher string `json:"launcher,omitempty"` // launcher script replacing the bundled one
	Require  string `json:"require,omitempty"`
}

func defaultPreferences() Preferences {
	return Preferences{
		History: HistoryPreferences{Depth: history.DefaultDepth},
		Timeouts: TimeoutPreferences{
			Script: engine.DefaultTimeout.String(),
			Fetch:  engine.DefaultFetchTimeout.String(),
		},
	}
}

// LoadPreferences loads preferences from path, returning defaults on any error.
func LoadPreferences(path string) Preferences {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultPreferences()
	}
	prefs := defaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaultPreferences()
	}
	sanitizePreferences(&prefs)
	return prefs
}

// sanitizePreferences replaces any field that would cause silent misbehaviour
// with its default value. Called after JSON unmarshal so that a hand-edited
// preferences file cannot leave the application in a broken state.
func sanitizePreferences(p *Preferences) {
	def := defaultPreferences()
	if p.History.Depth <= 0 {
		p.History.Depth = def.History.Depth
	}
	if d, err := time.ParseDuration(p.Timeouts.Script); err != nil || d <= 0 {
		p.Timeouts.Script = def.Timeouts.Script
	}
	if d, err := time.ParseDuration(p.Timeouts.Fetch); err != nil || d <= 0 {
		p.Timeouts.Fetch = def.Timeouts.Fetch
	}
	p.Require = strings.TrimSpace(p.Require)

	for id, rt := range p.Runtimes {
		in, err := scripts.ParseInterpreter(id)
		// The embedded runtime has nothing to override.
		if err != nil || in.Embedded() {
			delete(p.Runtimes, id)
			continue
		}
		rt.Path = strings.TrimSpace(rt.Path)
		rt.Require = strings.TrimSpace(rt.Require)
		p.Runtimes[id] = rt
	}
}

// SavePreferences writes preferences to path.
func SavePreferences(path string, prefs Preferences) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("preferences: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("preferences: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("preferences: write: %w", err)
	}
	return nil
}

func (p Preferences) runtime(in scripts.Interpreter) RuntimePreferences {
	return p.Runtimes[in.ID()]
}

// Enabled reports whether scripts for in are loaded and run. JavaScript is
// always enabled.
func (p Preferences) Enabled(in scripts.Interpreter) bool {
	return in.Embedded() || !p.runtime(in).Disabled
}

// RuntimeCommand is the configured runtime command line for in.
func (p Preferences) RuntimeCommand(in scripts.Interpreter) string {
	if path := p.runtime(in).Path; path != "" {
		return path
	}
	return in.DefaultRuntime()
}

// LauncherOverride is the user's launcher script for in, if any.
func (p Preferences) LauncherOverride(in scripts.Interpreter) (string, bool) {
	l := p.runtime(in).Launcher
	return l, l != ""
}

// RequireKeyword resolves the require keyword: per-runtime, then global, then
// the interpreter default.
func (p Preferences) RequireKeyword(in scripts.Interpreter) string {
	if kw := p.runtime(in).Require; kw != "" {
		return kw
	}
	if p.Require != "" {
		return p.Require
	}
	return in.DefaultRequireKeyword()
}

func (p Preferences) HistoryDepth() int { return p.History.Depth }

func (p Preferences) ScriptTimeout() time.Duration {
	return parseDurationOr(p.Timeouts.Script, engine.DefaultTimeout)
}

func (p Preferences) FetchTimeout() time.Duration {
	return parseDurationOr(p.Timeouts.Fetch, engine.DefaultFetchTimeout)
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
