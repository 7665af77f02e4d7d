package bridge_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/sigterm-de/boophost/internal/bridge"
	"codeberg.org/sigterm-de/boophost/internal/engine"
	"codeberg.org/sigterm-de/boophost/internal/scripts"
)

// fakeBridgeEnv selects the behaviour of the test binary when it is
// re-executed as a bridge process.
const fakeBridgeEnv = "BOOPHOST_FAKE_BRIDGE"

func TestMain(m *testing.M) {
	if mode := os.Getenv(fakeBridgeEnv); mode != "" {
		os.Exit(fakeBridge(mode))
	}
	os.Exit(m.Run())
}

// fakeBridge behaves like a launcher for the given mode.
func fakeBridge(mode string) int {
	var st bridge.State
	_ = json.Unmarshal([]byte(os.Getenv(bridge.EnvState)), &st)

	out := map[string]any{"text": st.Text, "fullText": st.FullText, "selection": st.Selection}
	switch mode {
	case "echo":
	case "upper":
		out["text"] = strings.ToUpper(st.Text)
		out["inserts"] = []string{"!"}
		out["messages"] = []map[string]string{
			{"type": "info", "message": "done"},
			{"type": "warning", "message": "dropped"},
			{"type": "error", "message": "careful"},
		}
	case "env":
		args := os.Args[1:]
		out["text"] = strings.Join([]string{
			os.Getenv(bridge.EnvModuleExt),
			os.Getenv(bridge.EnvScriptDir),
			os.Getenv(bridge.EnvLibDir),
			os.Getenv(bridge.EnvRequireName),
			fmt.Sprint(st.Network),
			strings.Join(args, ","),
		}, "|")
	case "garbage":
		fmt.Print("this is not json")
		return 0
	case "array":
		fmt.Print(`["text"]`)
		return 0
	case "fail":
		fmt.Fprint(os.Stderr, "boom")
		return 3
	}
	_ = json.NewEncoder(os.Stdout).Encode(out)
	return 0
}

func selfCommand(t *testing.T) bridge.Command {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	return bridge.Command{Path: exe, Launcher: "launcher.py"}
}

func run(t *testing.T, mode string, st *engine.State) {
	t.Helper()
	t.Setenv(fakeBridgeEnv, mode)
	dir := t.TempDir()
	exec := &bridge.Executor{
		Bridge:      bridge.New(),
		Command:     selfCommand(t),
		Interpreter: scripts.Python,
		LibDir:      "/lib/dir",
		RequireName: "boop_require",
	}
	exec.Execute(context.Background(), scripts.Script{Name: "fake", Path: filepath.Join(dir, "s.py")}, []*engine.State{st})
}

// An echoing bridge changes nothing and posts nothing.
func TestEchoBridgeIsNoOp(t *testing.T) {
	doc := engine.NewDocumentState("fake", "hello", 2)
	run(t, "echo", doc)
	assert.Equal(t, "hello", doc.Output())
	assert.Empty(t, doc.Messages())

	sel := engine.NewSelectionState("fake", "hello world", "world")
	run(t, "echo", sel)
	assert.Equal(t, "world", sel.Output())
	assert.Equal(t, "hello world", sel.FullText())
	assert.Empty(t, sel.Messages())
}

func TestBridgeResponseApplied(t *testing.T) {
	st := engine.NewSelectionState("fake", "abc def", "def")
	run(t, "upper", st)

	// text is applied, then the insert replaces the selection.
	assert.Equal(t, "!", st.Output())
	assert.Equal(t, []string{"!"}, st.Inserts())
	assert.Equal(t, []engine.Message{
		{Kind: engine.MessageInfo, Text: "done"},
		{Kind: engine.MessageError, Text: "careful"},
	}, st.Messages())
}

func TestBridgeEnvironment(t *testing.T) {
	st := engine.NewDocumentState("fake", "", -1)
	t.Setenv(fakeBridgeEnv, "env")
	dir := t.TempDir()
	script := filepath.Join(dir, "s.lua")
	exec := &bridge.Executor{
		Bridge:      bridge.New(),
		Command:     bridge.Command{Path: selfCommand(t).Path, Args: []string{"-x"}, Launcher: "bridge.lua"},
		Interpreter: scripts.Lua,
		LibDir:      "/lib/dir",
		RequireName: "need",
	}
	exec.Execute(context.Background(), scripts.Script{
		Name:        "fake",
		Path:        script,
		Permissions: []scripts.Permission{scripts.PermissionNetwork},
	}, []*engine.State{st})

	want := strings.Join([]string{".lua", dir, "/lib/dir", "need", "true", "-x,bridge.lua," + script}, "|")
	assert.Equal(t, want, st.Output())
}

func TestBridgeFailuresAreSilent(t *testing.T) {
	for _, mode := range []string{"garbage", "array", "fail"} {
		t.Run(mode, func(t *testing.T) {
			st := engine.NewDocumentState("fake", "keep", 0)
			run(t, mode, st)
			assert.Equal(t, "keep", st.Output())
			assert.Empty(t, st.Messages())
			assert.Empty(t, st.Inserts())
		})
	}
}

func TestBridgeSpawnFailure(t *testing.T) {
	st := engine.NewDocumentState("fake", "keep", 0)
	b := bridge.New()
	resp := b.Run(context.Background(),
		bridge.Command{Path: filepath.Join(t.TempDir(), "no-such-runtime")},
		bridge.Request{State: bridge.StateOf(st, false), ScriptPath: "/x.py"})
	assert.Equal(t, bridge.Response{}, resp)
}

func TestBridgeScriptFileResolver(t *testing.T) {
	t.Setenv(fakeBridgeEnv, "env")
	dir := t.TempDir()
	st := engine.NewDocumentState("fake", "", -1)
	exec := &bridge.Executor{
		Bridge:      bridge.New(),
		Command:     selfCommand(t),
		Interpreter: scripts.Python,
		ScriptFile: func(s scripts.Script) (string, error) {
			return filepath.Join(dir, "extracted", "CountWords.py"), nil
		},
	}
	exec.Execute(context.Background(), scripts.Script{Name: "Count Words", Path: "embedded:CountWords.py", BuiltIn: true}, []*engine.State{st})
	assert.Contains(t, st.Output(), filepath.Join(dir, "extracted"))
	assert.True(t, strings.HasSuffix(st.Output(), filepath.Join(dir, "extracted", "CountWords.py")))

	failing := *exec
	failing.ScriptFile = func(scripts.Script) (string, error) { return "", os.ErrNotExist }
	untouched := engine.NewDocumentState("fake", "same", 0)
	failing.Execute(context.Background(), scripts.Script{Name: "x"}, []*engine.State{untouched})
	assert.Equal(t, "same", untouched.Output())
}

func TestParseRuntime(t *testing.T) {
	cmd, err := bridge.ParseRuntime("  boophost   lua-bridge ", "/cache/bridge.lua")
	require.NoError(t, err)
	assert.Equal(t, bridge.Command{Path: "boophost", Args: []string{"lua-bridge"}, Launcher: "/cache/bridge.lua"}, cmd)

	_, err = bridge.ParseRuntime("   ", "x")
	assert.ErrorIs(t, err, bridge.ErrNoRuntime)
}

func TestDecodeResponse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		ok   bool
	}{
		{"object", `{"text":"a"}`, true},
		{"whitespace around", "\n {\"text\":\"a\"}\n\n", true},
		{"empty object", `{}`, true},
		{"array", `[1]`, false},
		{"string", `"x"`, false},
		{"invalid", `{"text":`, false},
		{"empty", ``, false},
		{"two objects", `{} {}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := bridge.DecodeResponse([]byte(tc.in))
			assert.Equal(t, tc.ok, ok)
		})
	}

	resp, ok := bridge.DecodeResponse([]byte(`{"text":1,"fullText":"f","inserts":"x","messages":[{"type":"info"},{"type":"error","message":"m"}]}`))
	require.True(t, ok)
	assert.Nil(t, resp.Text, "non-string text ignored")
	require.NotNil(t, resp.FullText)
	assert.Equal(t, "f", *resp.FullText)
	assert.Empty(t, resp.Inserts, "non-array inserts ignored")
	assert.Equal(t, []engine.Message{{Kind: engine.MessageError, Text: "m"}}, resp.Messages)
}

// A changed text wins over an echoed fullText and selection.
func TestApplyResponseSkipsEchoedFields(t *testing.T) {
	st := engine.NewDocumentState("fake", "abc", -1)
	sent := bridge.StateOf(st, false)
	text, full, sel := "ABC", "abc", ""
	bridge.ApplyResponse(st, sent, bridge.Response{Text: &text, FullText: &full, Selection: &sel})
	assert.Equal(t, "ABC", st.Output())
}
