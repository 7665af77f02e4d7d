package scripts

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"codeberg.org/sigterm-de/boophost/internal/logging"
)

// LoadResult is the combined outcome of loading built-in and user scripts.
type LoadResult struct {
	Scripts      []Script // Successfully loaded scripts, in load order
	SkippedFiles []string // Paths of files that were skipped
	BuiltInCount int
	UserCount    int
}

// maxUserScriptBytes caps the size of a single user script. Larger files are
// skipped so a misplaced binary cannot exhaust memory.
const maxUserScriptBytes = 5 * 1024 * 1024 // 5 MB

// EnabledFunc reports whether scripts for an interpreter should be loaded.
type EnabledFunc func(Interpreter) bool

// AllEnabled loads every interpreter.
func AllEnabled(Interpreter) bool { return true }

// Loader discovers and parses scripts from the embedded asset FS and the user
// scripts directory.
type Loader interface {
	// Load reads all built-in scripts, then all user scripts. Individual bad
	// files are logged and skipped; Load never fails because of one of them.
	Load() LoadResult
}

type loader struct {
	builtinFS fs.FS // scripts/ directory of the embedded assets
	userDir   string
	enabled   EnabledFunc
}

// NewLoader returns a Loader reading built-ins from builtinFS and user scripts
// from userDir ("" disables user scripts). enabled may be nil to load every
// interpreter.
func NewLoader(builtinFS fs.FS, userDir string, enabled EnabledFunc) Loader {
	if enabled == nil {
		enabled = AllEnabled
	}
	return &loader{builtinFS: builtinFS, userDir: userDir, enabled: enabled}
}

// Load implements Loader.
func (l *loader) Load() LoadResult {
	var result LoadResult
	if l.builtinFS != nil {
		l.loadBuiltIns(&result)
	}
	if l.userDir != "" {
		l.loadUserScripts(&result)
	}
	return result
}

// accepts reports whether a file name is a script for an enabled interpreter.
func (l *loader) accepts(name string) bool {
	ext := filepath.Ext(name)
	if !Supported(ext) {
		return false
	}
	return l.enabled(InterpreterForExtension(ext))
}

func (l *loader) loadBuiltIns(result *LoadResult) {
	err := fs.WalkDir(l.builtinFS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entry
		}
		// lib/ holds @boop/ modules, not scripts.
		if d.IsDir() {
			if d.Name() == "lib" {
				return fs.SkipDir
			}
			return nil
		}
		if !l.accepts(p) {
			return nil
		}

		data, readErr := fs.ReadFile(l.builtinFS, p)
		if readErr != nil {
			logging.Log(logging.WARN, p, "cannot read embedded script: "+readErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, p)
			return nil
		}

		script, parseErr := ParseMetadata(string(data))
		if parseErr != nil {
			logging.Log(logging.WARN, p, "skipping: "+parseErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, p)
			return nil
		}

		script.BuiltIn = true
		script.Path = "embedded:" + p
		script.Interpreter = InterpreterForExtension(path.Ext(p))
		result.Scripts = append(result.Scripts, script)
		result.BuiltInCount++
		return nil
	})
	if err != nil {
		logging.Log(logging.WARN, "", "walking built-in scripts: "+err.Error())
	}
}

func (l *loader) loadUserScripts(result *LoadResult) {
	entries, err := os.ReadDir(l.userDir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Log(logging.INFO, "", "user scripts dir does not exist: "+l.userDir)
			return
		}
		logging.Log(logging.WARN, "", "cannot read user scripts dir: "+err.Error())
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name[0] == '.' || !l.accepts(name) {
			continue
		}
		absPath := filepath.Join(l.userDir, name)

		info, statErr := entry.Info()
		if statErr != nil {
			logging.Log(logging.WARN, name, "cannot stat user script: "+statErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, absPath)
			continue
		}
		if info.Size() > maxUserScriptBytes {
			logging.Log(logging.WARN, name, fmt.Sprintf("skipping: file size %d B exceeds limit of %d B", info.Size(), maxUserScriptBytes))
			result.SkippedFiles = append(result.SkippedFiles, absPath)
			continue
		}

		data, readErr := os.ReadFile(absPath)
		if readErr != nil {
			logging.Log(logging.WARN, name, "cannot read user script: "+readErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, absPath)
			continue
		}

		script, parseErr := ParseMetadata(string(data))
		if parseErr != nil {
			logging.Log(logging.WARN, name, "skipping: "+parseErr.Error())
			result.SkippedFiles = append(result.SkippedFiles, absPath)
			continue
		}

		script.Path = absPath
		script.Interpreter = InterpreterForExtension(filepath.Ext(name))
		result.Scripts = append(result.Scripts, script)
		result.UserCount++
	}
}
