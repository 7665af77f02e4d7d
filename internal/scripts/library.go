package scripts

import (
	"codeberg.org/sigterm-de/boophost/internal/logging"
)

// Catalog is the in-memory registry of loaded scripts. It is rebuilt wholesale
// by Reload; callers must not hold on to Script values across a reload and
// expect them to still be in the catalog.
//
// A Catalog is not safe for concurrent use; runs and reloads happen on one
// goroutine.
type Catalog struct {
	loader  Loader
	scripts []Script // load order: built-ins first, then user scripts
	skipped []string
}

// NewCatalog builds a catalog and performs the initial load.
func NewCatalog(loader Loader) *Catalog {
	c := &Catalog{loader: loader}
	c.Reload()
	return c
}

// Reload discards every loaded script and loads built-in then user scripts
// again. Scripts sharing a name are all kept.
func (c *Catalog) Reload() LoadResult {
	c.scripts = nil
	c.skipped = nil

	result := c.loader.Load()
	c.scripts = result.Scripts
	c.skipped = result.SkippedFiles

	logging.Logf(logging.INFO, "", "loaded %d built-in scripts, %d user scripts (%d skipped)",
		result.BuiltInCount, result.UserCount, len(result.SkippedFiles))
	return result
}

// All returns a copy of the loaded scripts in load order.
func (c *Catalog) All() []Script {
	out := make([]Script, len(c.scripts))
	copy(out, c.scripts)
	return out
}

// Len returns the number of loaded scripts.
func (c *Catalog) Len() int {
	return len(c.scripts)
}

// Skipped returns the files skipped by the most recent load.
func (c *Catalog) Skipped() []string {
	out := make([]string, len(c.skipped))
	copy(out, c.skipped)
	return out
}

// Find returns the first script, in load order, named name.
func (c *Catalog) Find(name string) (Script, bool) {
	for _, s := range c.scripts {
		if s.Name == name {
			return s, true
		}
	}
	return Script{}, false
}

// FindPath returns the script loaded from path.
func (c *Catalog) FindPath(path string) (Script, bool) {
	for _, s := range c.scripts {
		if s.Path == path {
			return s, true
		}
	}
	return Script{}, false
}
