package runner_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/sigterm-de/boophost/internal/bridge"
	"codeberg.org/sigterm-de/boophost/internal/engine"
	"codeberg.org/sigterm-de/boophost/internal/runner"
	"codeberg.org/sigterm-de/boophost/internal/scripts"
)

type fakeConfig struct {
	disabled map[scripts.Interpreter]bool
	runtime  map[scripts.Interpreter]string
}

func (c fakeConfig) Enabled(in scripts.Interpreter) bool { return !c.disabled[in] }

func (c fakeConfig) RuntimeCommand(in scripts.Interpreter) string {
	if r, ok := c.runtime[in]; ok {
		return r
	}
	return in.DefaultRuntime()
}

func (c fakeConfig) RequireKeyword(in scripts.Interpreter) string { return in.DefaultRequireKeyword() }

type fakeResources struct {
	missing bool
}

func (r fakeResources) Launcher(in scripts.Interpreter) (string, error) {
	if r.missing {
		return "", fmt.Errorf("%w: %s", runner.ErrLauncherMissing, in)
	}
	return "/cache/" + in.Launcher(), nil
}

func (fakeResources) LibDir() string { return "/cache/lib" }

func (fakeResources) ScriptFile(s scripts.Script) (string, error) { return s.Path, nil }

func TestResolveEmbedded(t *testing.T) {
	embedded := engine.New(engine.Options{})
	d := &runner.Dispatcher{Embedded: embedded, Config: fakeConfig{}, Resources: fakeResources{}}
	got, err := d.Resolve(scripts.Script{Interpreter: scripts.JavaScript})
	require.NoError(t, err)
	assert.Same(t, embedded, got)
}

func TestResolveExternal(t *testing.T) {
	b := bridge.New()
	d := &runner.Dispatcher{
		Bridge:    b,
		Config:    fakeConfig{runtime: map[scripts.Interpreter]string{scripts.Lua: "boophost lua-bridge"}},
		Resources: fakeResources{},
	}

	for _, in := range scripts.Interpreters[1:] {
		t.Run(in.String(), func(t *testing.T) {
			got, err := d.Resolve(scripts.Script{Interpreter: in})
			require.NoError(t, err)
			exec, ok := got.(*bridge.Executor)
			require.True(t, ok, "got %T", got)
			assert.Same(t, b, exec.Bridge)
			assert.Equal(t, in, exec.Interpreter)
			assert.Equal(t, "/cache/"+in.Launcher(), exec.Command.Launcher)
			assert.Equal(t, "/cache/lib", exec.LibDir)
			assert.Equal(t, in.DefaultRequireKeyword(), exec.RequireName)
			assert.NotNil(t, exec.ScriptFile)
		})
	}

	got, err := d.Resolve(scripts.Script{Interpreter: scripts.Lua})
	require.NoError(t, err)
	cmd := got.(*bridge.Executor).Command
	assert.Equal(t, "boophost", cmd.Path)
	assert.Equal(t, []string{"lua-bridge"}, cmd.Args)
}

func TestResolveFailures(t *testing.T) {
	disabled := &runner.Dispatcher{
		Config:    fakeConfig{disabled: map[scripts.Interpreter]bool{scripts.Ruby: true}},
		Resources: fakeResources{},
	}
	_, err := disabled.Resolve(scripts.Script{Interpreter: scripts.Ruby})
	assert.ErrorIs(t, err, runner.ErrInterpreterDisabled)

	missing := &runner.Dispatcher{Config: fakeConfig{}, Resources: fakeResources{missing: true}}
	_, err = missing.Resolve(scripts.Script{Interpreter: scripts.Perl})
	assert.ErrorIs(t, err, runner.ErrLauncherMissing)

	empty := &runner.Dispatcher{
		Config:    fakeConfig{runtime: map[scripts.Interpreter]string{scripts.Python: "  "}},
		Resources: fakeResources{},
	}
	_, err = empty.Resolve(scripts.Script{Interpreter: scripts.Python})
	assert.ErrorIs(t, err, bridge.ErrNoRuntime)
}
