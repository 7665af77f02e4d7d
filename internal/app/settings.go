package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"codeberg.org/sigterm-de/boophost/internal/scripts"
)

var ErrUnknownSetting = errors.New("unknown setting")

// Setting is one key/value pair as shown by `prefs show`.
type Setting struct {
	Key   string
	Value string
}

// Settings lists every settable key with its effective value, global keys
// first, then one block per external runtime.
func (p Preferences) Settings() []Setting {
	out := []Setting{
		{"history.depth", strconv.Itoa(p.HistoryDepth())},
		{"require.keyword", p.Require},
		{"script.timeout", p.ScriptTimeout().String()},
		{"fetch.timeout", p.FetchTimeout().String()},
	}
	for _, in := range scripts.Interpreters {
		if in.Embedded() {
			continue
		}
		launcher, _ := p.LauncherOverride(in)
		prefix := "runtime." + in.ID() + "."
		out = append(out,
			Setting{prefix + "enabled", strconv.FormatBool(p.Enabled(in))},
			Setting{prefix + "path", p.RuntimeCommand(in)},
			Setting{prefix + "launcher", launcher},
			Setting{prefix + "require", p.RequireKeyword(in)},
		)
	}
	return out
}

// Set changes one setting by key. An empty value resets string settings to
// their default.
func (p *Preferences) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "history.depth":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: want a positive integer, got %q", key, value)
		}
		p.History.Depth = n
	case "require.keyword":
		p.Require = value
	case "script.timeout":
		return setDuration(&p.Timeouts.Script, key, value)
	case "fetch.timeout":
		return setDuration(&p.Timeouts.Fetch, key, value)
	default:
		return p.setRuntime(key, value)
	}
	return nil
}

func (p *Preferences) setRuntime(key, value string) error {
	rest, ok := strings.CutPrefix(key, "runtime.")
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	id, field, ok := strings.Cut(rest, ".")
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	in, err := scripts.ParseInterpreter(id)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnknownSetting, key, err)
	}
	if in.Embedded() {
		return fmt.Errorf("%s: the embedded JavaScript runtime cannot be configured", key)
	}

	rt := p.runtime(in)
	switch field {
	case "enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: want true or false, got %q", key, value)
		}
		rt.Disabled = !b
	case "path":
		rt.Path = value
	case "launcher":
		rt.Launcher = value
	case "require":
		rt.Require = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	if p.Runtimes == nil {
		p.Runtimes = map[string]RuntimePreferences{}
	}
	if rt == (RuntimePreferences{}) {
		delete(p.Runtimes, in.ID())
	} else {
		p.Runtimes[in.ID()] = rt
	}
	return nil
}

func setDuration(dst *string, key, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fmt.Errorf("%s: want a positive duration such as 5s, got %q", key, value)
	}
	*dst = d.String()
	return nil
}
