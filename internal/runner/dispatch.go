package runner

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/sigterm-de/boophost/internal/bridge"
	"codeberg.org/sigterm-de/boophost/internal/engine"
	"codeberg.org/sigterm-de/boophost/internal/scripts"
)

var (
	ErrInterpreterDisabled = errors.New("interpreter is disabled")
	ErrLauncherMissing     = errors.New("bridge launcher is missing")
)

// Strategy executes a script against every target state in order.
type Strategy interface {
	Execute(ctx context.Context, script scripts.Script, targets []*engine.State)
}

// Config is the part of the preferences the dispatcher consults.
type Config interface {
	Enabled(in scripts.Interpreter) bool
	RuntimeCommand(in scripts.Interpreter) string
	RequireKeyword(in scripts.Interpreter) string
}

// Resources locates files external runtimes need on disk.
type Resources interface {
	// Launcher returns the launcher path for in, or an error wrapping
	// ErrLauncherMissing.
	Launcher(in scripts.Interpreter) (string, error)
	LibDir() string
	ScriptFile(s scripts.Script) (string, error)
}

// Dispatcher maps a script's interpreter to the strategy that runs it.
type Dispatcher struct {
	Embedded  *engine.Executor
	Bridge    *bridge.Bridge
	Config    Config
	Resources Resources
}

// Resolve returns the strategy for script. A disabled interpreter or a
// missing launcher is reported as an error; the caller treats the run as a
// no-op.
func (d *Dispatcher) Resolve(script scripts.Script) (Strategy, error) {
	in := script.Interpreter
	switch in {
	case scripts.JavaScript:
		return d.Embedded, nil
	case scripts.Python, scripts.Ruby, scripts.Perl, scripts.Lua, scripts.Node:
		return d.external(in)
	default:
		panic(fmt.Sprintf("runner: unknown interpreter %d", in))
	}
}

func (d *Dispatcher) external(in scripts.Interpreter) (Strategy, error) {
	if !d.Config.Enabled(in) {
		return nil, fmt.Errorf("%w: %s", ErrInterpreterDisabled, in)
	}
	launcher, err := d.Resources.Launcher(in)
	if err != nil {
		return nil, err
	}
	cmd, err := bridge.ParseRuntime(d.Config.RuntimeCommand(in), launcher)
	if err != nil {
		return nil, fmt.Errorf("%s runtime: %w", in, err)
	}
	return &bridge.Executor{
		Bridge:      d.Bridge,
		Command:     cmd,
		Interpreter: in,
		LibDir:      d.Resources.LibDir(),
		RequireName: d.Config.RequireKeyword(in),
		ScriptFile:  d.Resources.ScriptFile,
	}, nil
}
