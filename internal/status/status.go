// Package status delivers the info and error messages scripts post.
package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Sink receives status messages in the order they were posted.
type Sink interface {
	PostInfo(msg string)
	PostError(msg string)
}

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Console writes one styled line per message.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	logPath string
}

// NewConsole returns a Console writing to w. When logPath is set, error
// lines point the user at the log file.
func NewConsole(w io.Writer, logPath string) *Console {
	return &Console{w: w, logPath: logPath}
}

func (c *Console) PostInfo(msg string) {
	c.write(infoStyle.Render("✓") + " " + msg)
}

func (c *Console) PostError(msg string) {
	line := errorStyle.Render("✗") + " " + msg
	if c.logPath != "" {
		line += "  " + dimStyle.Render("(log: "+c.logPath+")")
	}
	c.write(line)
}

func (c *Console) write(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, line)
}

// Kind distinguishes recorded messages.
type Kind string

const (
	Info  Kind = "info"
	Error Kind = "error"
)

// Message is one message kept by a Recorder.
type Message struct {
	Kind Kind
	Text string
}

// Recorder keeps every message it receives.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) PostInfo(msg string)  { r.add(Info, msg) }
func (r *Recorder) PostError(msg string) { r.add(Error, msg) }

func (r *Recorder) add(k Kind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Kind: k, Text: msg})
}

// Messages returns a copy of everything received so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Len is the number of messages received.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// Func adapts a single function to a Sink.
type Func func(kind Kind, msg string)

func (f Func) PostInfo(msg string)  { f(Info, msg) }
func (f Func) PostError(msg string) { f(Error, msg) }

// Discard drops every message.
var Discard Sink = Func(func(Kind, string) {})
