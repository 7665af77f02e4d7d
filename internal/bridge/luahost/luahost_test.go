package luahost_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/sigterm-de/boophost/internal/bridge"
	"codeberg.org/sigterm-de/boophost/internal/bridge/luahost"
	"codeberg.org/sigterm-de/boophost/internal/engine"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func run(t *testing.T, state, src string, env luahost.Env) bridge.Response {
	t.Helper()
	dir := t.TempDir()
	if env.ScriptDir == "" {
		env.ScriptDir = dir
	}
	if env.ModuleExt == "" {
		env.ModuleExt = ".lua"
	}
	if env.RequireName == "" {
		env.RequireName = "boop_require"
	}
	script := writeFile(t, dir, "script.lua", src)

	out, err := (&luahost.Host{}).Run(context.Background(), state, script, env)
	require.NoError(t, err)
	resp, ok := bridge.DecodeResponse(out)
	require.True(t, ok, "output %s", out)
	return resp
}

func TestTitleCaseScript(t *testing.T) {
	resp := run(t, `{"text":"hello wORLD","fullText":"hello wORLD","selection":"","network":false}`, `
function main(state)
  state.text = (state.text:gsub("(%a)([%w']*)", function(first, rest)
    return first:upper() .. rest:lower()
  end))
end`, luahost.Env{})
	require.NotNil(t, resp.Text)
	assert.Equal(t, "Hello World", *resp.Text)
	require.NotNil(t, resp.FullText)
	assert.Equal(t, "hello wORLD", *resp.FullText)
	assert.Empty(t, resp.Messages)
}

func TestMessagesAndInserts(t *testing.T) {
	resp := run(t, `{"text":"a","fullText":"a","selection":""}`, `
function main(state)
  state:post_info("one")
  state.post_error("two")
  state:insert("x")
  state.insert(42)
end`, luahost.Env{})
	assert.Equal(t, []string{"x", "42"}, resp.Inserts)
	assert.Equal(t, []engine.Message{
		{Kind: engine.MessageInfo, Text: "one"},
		{Kind: engine.MessageError, Text: "two"},
	}, resp.Messages)
}

func TestRuntimeErrorBecomesMessage(t *testing.T) {
	resp := run(t, `{"text":"a"}`, `function main(state) error("boom") end`, luahost.Env{})
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, engine.MessageError, resp.Messages[0].Kind)
	assert.Contains(t, resp.Messages[0].Text, "boom")
}

func TestLoadErrorFails(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "bad.lua", `function main(`)
	_, err := (&luahost.Host{}).Run(context.Background(), `{}`, script, luahost.EnvFromOS())
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	lib := t.TempDir()
	writeFile(t, lib, "shout.lua", `return { go = function(s) return s:upper() .. "!" end }`)
	scriptDir := t.TempDir()
	writeFile(t, scriptDir, "helper.lua", `return { twice = function(s) return s .. s end }`)

	resp := run(t, `{"text":"ab"}`, `
local shout = need("@boop/shout")
local helper = need("helper.lua")
local again = need("@boop/shout")
function main(state)
  state.text = helper.twice(shout.go(state.text))
  if again ~= shout then state.post_error("module loaded twice") end
  if need("missing") ~= nil then state.post_error("missing module resolved") end
end`, luahost.Env{LibDir: lib, ScriptDir: scriptDir, RequireName: "need"})
	assert.Empty(t, resp.Messages)
	require.NotNil(t, resp.Text)
	assert.Equal(t, "AB!AB!", *resp.Text)
}

func TestFetchPermission(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_, _ = io.WriteString(w, r.Method+" "+string(b))
	}))
	defer srv.Close()

	src := `function main(state)
  local r = state:fetch("` + srv.URL + `", "post", "hi")
  state.text = tostring(r)
end`

	denied := run(t, `{"text":"","network":false}`, src, luahost.Env{})
	require.NotNil(t, denied.Text)
	assert.Equal(t, "nil", *denied.Text)
	assert.Equal(t, []engine.Message{{Kind: engine.MessageError, Text: "Network permission required"}}, denied.Messages)

	allowed := run(t, `{"text":"","network":true}`, src, luahost.Env{})
	require.NotNil(t, allowed.Text)
	assert.Equal(t, "POST hi", *allowed.Text)
	assert.Empty(t, allowed.Messages)
}

func TestEnvFromOSDefaults(t *testing.T) {
	t.Setenv(bridge.EnvModuleExt, "")
	t.Setenv(bridge.EnvRequireName, "")
	t.Setenv(bridge.EnvLibDir, "/lib")
	env := luahost.EnvFromOS()
	assert.Equal(t, ".lua", env.ModuleExt)
	assert.Equal(t, "boop_require", env.RequireName)
	assert.Equal(t, "/lib", env.LibDir)
}
