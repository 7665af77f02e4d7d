// Package logging writes structured, line-oriented log records for the host and
// for the scripts it runs.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
)

// Level represents the severity of a log entry.
type Level int

const (
	INFO  Level = 0
	WARN  Level = 1
	ERROR Level = 2
)

func (l Level) String() string {
	switch l {
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

var (
	mu      sync.Mutex
	out     io.Writer
	logFile *os.File
	logPath string
	now     = time.Now
)

// Init opens (or creates) the log file under the XDG state home
// (~/.local/state/<appName>/<appName>.log) and returns its absolute path.
func Init(appName string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	p, err := xdg.StateFile(filepath.Join(appName, appName+".log"))
	if err != nil {
		return "", fmt.Errorf("logging: resolve state path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("logging: create log dir: %w", err)
	}
	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("logging: open log file: %w", err)
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	logPath = p
	out = f
	return p, nil
}

// SetOutput redirects log records to w. Passing nil disables logging.
// Any file opened by Init is closed.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
		logPath = ""
	}
	out = w
}

// Log writes one record. Safe to call from any goroutine; dropped silently
// when no output is configured.
func Log(level Level, scriptName, message string) {
	mu.Lock()
	defer mu.Unlock()

	if out == nil {
		return
	}
	ts := now().UTC().Format(time.RFC3339)
	_, _ = fmt.Fprintf(out, "%s [%s] script=%q %s\n", ts, level, scriptName, message)
}

// Logf is Log with a format string.
func Logf(level Level, scriptName, format string, args ...any) {
	Log(level, scriptName, fmt.Sprintf(format, args...))
}

// Path returns the log file path, or "" when logging to a writer or disabled.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}
