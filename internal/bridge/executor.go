package bridge

import (
	"context"
	"path/filepath"

	"codeberg.org/sigterm-de/boophost/internal/engine"
	"codeberg.org/sigterm-de/boophost/internal/logging"
	"codeberg.org/sigterm-de/boophost/internal/scripts"
)

// Executor runs a script through the bridge once per target state.
type Executor struct {
	Bridge      *Bridge
	Command     Command
	Interpreter scripts.Interpreter
	LibDir      string
	RequireName string
	// ScriptFile returns the on-disk path of a script. Built-in scripts live
	// in the embedded FS and must be extracted first.
	ScriptFile func(scripts.Script) (string, error)
}

// Execute implements the run strategy for external interpreters. A script
// whose file cannot be located leaves every target untouched.
func (e *Executor) Execute(ctx context.Context, script scripts.Script, targets []*engine.State) {
	path := script.Path
	if e.ScriptFile != nil {
		p, err := e.ScriptFile(script)
		if err != nil {
			logging.Logf(logging.WARN, script.Name, "bridge: locate script: %v", err)
			return
		}
		path = p
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	for _, st := range targets {
		req := Request{
			State:       StateOf(st, script.HasPermission(scripts.PermissionNetwork)),
			ScriptPath:  path,
			ScriptDir:   filepath.Dir(path),
			ModuleExt:   e.Interpreter.ModuleExtension(),
			LibDir:      e.LibDir,
			RequireName: e.RequireName,
		}
		resp := e.Bridge.Run(ctx, e.Command, req)
		ApplyResponse(st, req.State, resp)
	}
}

// StateOf builds the BOOP_STATE payload for st. Selection is empty in
// whole-document mode.
func StateOf(st *engine.State, network bool) State {
	sel, _ := st.Selection()
	return State{
		Text:      st.Text(),
		FullText:  st.FullText(),
		Selection: sel,
		Network:   network,
	}
}
