// Package luahost is the Lua side of the bridge protocol, hosted in Go on
// gopher-lua. Pointing the Lua runtime at `boophost lua-bridge` runs Lua
// scripts without a system Lua or JSON library.
package luahost

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"

	"codeberg.org/sigterm-de/boophost/internal/bridge"
)

const boopPrefix = "@boop/"

// Env carries the protocol environment other than the state itself.
type Env struct {
	ModuleExt   string
	ScriptDir   string
	LibDir      string
	RequireName string
}

// EnvFromOS reads the BOOP_* variables, falling back to the Lua defaults.
func EnvFromOS() Env {
	env := Env{
		ModuleExt:   os.Getenv(bridge.EnvModuleExt),
		ScriptDir:   os.Getenv(bridge.EnvScriptDir),
		LibDir:      os.Getenv(bridge.EnvLibDir),
		RequireName: os.Getenv(bridge.EnvRequireName),
	}
	if env.ModuleExt == "" {
		env.ModuleExt = ".lua"
	}
	if env.RequireName == "" {
		env.RequireName = "boop_require"
	}
	return env
}

// output is the JSON written back to the host.
type output struct {
	Text      *string   `json:"text,omitempty"`
	FullText  *string   `json:"fullText,omitempty"`
	Selection *string   `json:"selection,omitempty"`
	Inserts   []string  `json:"inserts"`
	Messages  []message `json:"messages"`
}

type message struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Host runs Lua scripts under the bridge protocol.
type Host struct {
	Client       *http.Client
	FetchTimeout time.Duration
}

// Run loads scriptPath, calls its global main(state) with the state decoded
// from stateJSON, and returns the protocol output.
func (h *Host) Run(ctx context.Context, stateJSON, scriptPath string, env Env) ([]byte, error) {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	data := gjson.Parse(stateJSON)
	out := output{Inserts: []string{}, Messages: []message{}}

	state := L.NewTable()
	for _, key := range []string{"text", "fullText", "selection"} {
		if v := data.Get(key); v.Type == gjson.String {
			L.SetField(state, key, lua.LString(v.String()))
		}
	}
	network := data.Get("network").Bool()
	L.SetField(state, "network", lua.LBool(network))

	post := func(kind string) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			out.Messages = append(out.Messages, message{Type: kind, Message: argString(L, 1)})
			return 0
		})
	}
	L.SetField(state, "post_info", post("info"))
	L.SetField(state, "post_error", post("error"))
	L.SetField(state, "insert", L.NewFunction(func(L *lua.LState) int {
		out.Inserts = append(out.Inserts, argString(L, 1))
		return 0
	}))
	L.SetField(state, "fetch", L.NewFunction(func(L *lua.LState) int {
		if !network {
			out.Messages = append(out.Messages, message{Type: "error", Message: "Network permission required"})
			L.Push(lua.LNil)
			return 1
		}
		body, err := h.fetch(ctx, argString(L, 1), optArg(L, 2), optArg(L, 3))
		if err != nil {
			out.Messages = append(out.Messages, message{Type: "error", Message: "Failed to fetch"})
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(body))
		return 1
	}))

	L.SetGlobal(env.RequireName, L.NewFunction(requireFunc(env)))

	if err := L.DoFile(scriptPath); err != nil {
		return nil, fmt.Errorf("luahost: load %s: %w", scriptPath, err)
	}
	if fn, ok := L.GetGlobal("main").(*lua.LFunction); ok {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, state); err != nil {
			out.Messages = append(out.Messages, message{Type: "error", Message: err.Error()})
		}
	}

	out.Text = fieldString(state, "text")
	out.FullText = fieldString(state, "fullText")
	out.Selection = fieldString(state, "selection")
	return json.Marshal(out)
}

// argString returns argument n, skipping a leading self table so that both
// state.insert(v) and state:insert(v) work.
func argString(L *lua.LState, n int) string {
	if _, ok := L.Get(1).(*lua.LTable); ok {
		n++
	}
	v := L.Get(n)
	if v == lua.LNil {
		return ""
	}
	return lua.LVAsString(v)
}

func optArg(L *lua.LState, n int) *string {
	if _, ok := L.Get(1).(*lua.LTable); ok {
		n++
	}
	v := L.Get(n)
	if v == lua.LNil {
		return nil
	}
	s := lua.LVAsString(v)
	return &s
}

func fieldString(t *lua.LTable, key string) *string {
	v, ok := t.RawGetString(key).(lua.LString)
	if !ok {
		return nil
	}
	s := string(v)
	return &s
}

// requireFunc resolves @boop/<name> in the lib dir and anything else next to
// the script, appending the module extension when missing. Modules are
// loaded once.
func requireFunc(env Env) lua.LGFunction {
	loaded := map[string]lua.LValue{}
	return func(L *lua.LState) int {
		target := L.CheckString(1)
		if !strings.HasSuffix(target, env.ModuleExt) {
			target += env.ModuleExt
		}
		var path string
		if name, ok := strings.CutPrefix(target, boopPrefix); ok {
			path = filepath.Join(env.LibDir, name)
		} else {
			path = filepath.Join(env.ScriptDir, target)
		}

		if v, ok := loaded[path]; ok {
			L.Push(v)
			return 1
		}
		fn, err := L.LoadFile(path)
		if err != nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(fn)
		L.Call(0, 1)
		v := L.Get(-1)
		L.Pop(1)
		if v == lua.LNil {
			v = lua.LTrue
		}
		loaded[path] = v
		L.Push(v)
		return 1
	}
}

func (h *Host) fetch(ctx context.Context, url string, method, body *string) (string, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := h.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m := http.MethodGet
	if method != nil && *method != "" {
		m = strings.ToUpper(*method)
	}
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(*body)
	}
	req, err := http.NewRequestWithContext(ctx, m, url, reader)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
