// Package bridge runs scripts for external runtimes. Each run spawns one
// process: the runtime binary executes a launcher script, which loads the
// user script, calls its main function and prints the resulting state as a
// single JSON object on stdout.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/tidwall/gjson"

	"codeberg.org/sigterm-de/boophost/internal/engine"
	"codeberg.org/sigterm-de/boophost/internal/logging"
)

// Environment variables of the bridge protocol.
const (
	EnvState       = "BOOP_STATE"
	EnvModuleExt   = "BOOP_MODULE_EXT"
	EnvScriptDir   = "BOOP_SCRIPT_DIR"
	EnvLibDir      = "BOOP_LIB_DIR"
	EnvRequireName = "BOOP_REQUIRE_NAME"
)

// ErrNoRuntime is returned by ParseRuntime for an empty command line.
var ErrNoRuntime = errors.New("bridge: empty runtime command")

// Command is a resolved runtime invocation. The process argv is
// Path, Args..., Launcher, script path.
type Command struct {
	Path     string
	Args     []string
	Launcher string
}

// ParseRuntime splits a configured runtime command line on whitespace, so a
// runtime may carry leading arguments ("boophost lua-bridge").
func ParseRuntime(runtime, launcher string) (Command, error) {
	fields := strings.Fields(runtime)
	if len(fields) == 0 {
		return Command{}, ErrNoRuntime
	}
	return Command{Path: fields[0], Args: fields[1:], Launcher: launcher}, nil
}

func (c Command) argv(scriptPath string) []string {
	args := append([]string(nil), c.Args...)
	if c.Launcher != "" {
		args = append(args, c.Launcher)
	}
	return append(args, scriptPath)
}

// State is the BOOP_STATE payload.
type State struct {
	Text      string `json:"text"`
	FullText  string `json:"fullText"`
	Selection string `json:"selection"`
	Network   bool   `json:"network"`
}

// Request is everything one bridge run receives.
type Request struct {
	State       State
	ScriptPath  string // absolute
	ScriptDir   string
	ModuleExt   string
	LibDir      string
	RequireName string
}

// Response is the decoded bridge output. Nil string fields were absent.
type Response struct {
	Text      *string
	FullText  *string
	Selection *string
	Inserts   []string
	Messages  []engine.Message
}

// Bridge spawns bridge processes.
type Bridge struct {
	// Environ returns the base environment for child processes.
	Environ func() []string
}

// New returns a Bridge that passes the host environment to its children.
func New() *Bridge {
	return &Bridge{Environ: os.Environ}
}

// Run executes one bridge process and waits for it to exit. Every failure
// (spawn, exit status, unparseable output) yields the zero Response and is
// only logged.
func (b *Bridge) Run(ctx context.Context, cmd Command, req Request) Response {
	payload, err := json.Marshal(req.State)
	if err != nil {
		logging.Logf(logging.WARN, req.ScriptPath, "bridge: encode state: %v", err)
		return Response{}
	}

	proc := exec.CommandContext(ctx, cmd.Path, cmd.argv(req.ScriptPath)...)
	proc.Env = append(b.environ(),
		EnvState+"="+string(payload),
		EnvModuleExt+"="+req.ModuleExt,
		EnvScriptDir+"="+req.ScriptDir,
		EnvLibDir+"="+req.LibDir,
		EnvRequireName+"="+req.RequireName,
	)
	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	runErr := proc.Run()
	if stderr.Len() > 0 {
		logging.Logf(logging.WARN, req.ScriptPath, "bridge stderr: %s", strings.TrimSpace(stderr.String()))
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			logging.Logf(logging.WARN, req.ScriptPath, "bridge: start %s: %v", cmd.Path, runErr)
			return Response{}
		}
		logging.Logf(logging.WARN, req.ScriptPath, "bridge: %s exited with status %d", cmd.Path, exitErr.ExitCode())
	}

	resp, ok := DecodeResponse(stdout.Bytes())
	if !ok {
		logging.Logf(logging.WARN, req.ScriptPath, "bridge: output is not a JSON object (%d bytes)", stdout.Len())
		return Response{}
	}
	return resp
}

func (b *Bridge) environ() []string {
	if b.Environ == nil {
		return nil
	}
	return b.Environ()
}

// DecodeResponse parses bridge output. ok is false unless out is a single
// JSON object. Members of the wrong type are ignored.
func DecodeResponse(out []byte) (resp Response, ok bool) {
	out = bytes.TrimSpace(out)
	if !gjson.ValidBytes(out) {
		return Response{}, false
	}
	doc := gjson.ParseBytes(out)
	if !doc.IsObject() {
		return Response{}, false
	}

	str := func(key string) *string {
		v := doc.Get(key)
		if v.Type != gjson.String {
			return nil
		}
		s := v.String()
		return &s
	}
	resp.Text = str("text")
	resp.FullText = str("fullText")
	resp.Selection = str("selection")

	if inserts := doc.Get("inserts"); inserts.IsArray() {
		inserts.ForEach(func(_, v gjson.Result) bool {
			if v.Type == gjson.String {
				resp.Inserts = append(resp.Inserts, v.String())
			}
			return true
		})
	}

	messages := doc.Get("messages")
	if !messages.IsArray() {
		return resp, true
	}
	messages.ForEach(func(_, m gjson.Result) bool {
		text := m.Get("message")
		if text.Type != gjson.String {
			return true
		}
		switch m.Get("type").String() {
		case "info":
			resp.Messages = append(resp.Messages, engine.Message{Kind: engine.MessageInfo, Text: text.String()})
		case "error":
			resp.Messages = append(resp.Messages, engine.Message{Kind: engine.MessageError, Text: text.String()})
		}
		return true
	})
	return resp, true
}

// ApplyResponse writes resp into st. A field equal to what was sent counts
// as unchanged. Changed fields apply in the order text, fullText, selection;
// then inserts and messages replay in order.
func ApplyResponse(st *engine.State, sent State, resp Response) {
	if resp.Text != nil && *resp.Text != sent.Text {
		st.SetText(*resp.Text)
	}
	if resp.FullText != nil && *resp.FullText != sent.FullText {
		st.SetFullText(*resp.FullText)
	}
	if resp.Selection != nil && *resp.Selection != sent.Selection {
		st.SetSelection(*resp.Selection)
	}
	for _, v := range resp.Inserts {
		st.Insert(v)
	}
	for _, m := range resp.Messages {
		if m.Kind == engine.MessageError {
			st.PostError(m.Text)
		} else {
			st.PostInfo(m.Text)
		}
	}
}
