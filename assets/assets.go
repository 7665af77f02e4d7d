// Package assets exposes the embedded built-in scripts, the @boop/ library
// modules and the external bridge launchers.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed scripts bridges
var embedded embed.FS

// Scripts returns a sub-filesystem rooted at the scripts/ directory. It holds
// the bundled script files and, under lib/, the @boop/ modules.
func Scripts() fs.FS {
	sub, err := fs.Sub(embedded, "scripts")
	if err != nil {
		panic("assets: sub scripts: " + err.Error())
	}
	return sub
}

// Lib returns the @boop/ module directory (scripts/lib).
func Lib() fs.FS {
	sub, err := fs.Sub(embedded, "scripts/lib")
	if err != nil {
		panic("assets: sub lib: " + err.Error())
	}
	return sub
}

// Bridges returns the embedded root holding bridges/<id>/bridge.<ext>
// launchers, addressed by scripts.Interpreter.Launcher().
func Bridges() fs.FS {
	return embedded
}
