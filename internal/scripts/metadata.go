package scripts

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// Metadata block markers. The block between them is a JSON object.
const (
	openMarker  = "/**"
	closeMarker = "**/"
)

// Permission is a capability a script must declare before using it.
type Permission string

// PermissionNetwork allows fetch().
const PermissionNetwork Permission = "network"

// Script is the parsed metadata and source of one script. Scripts are values
// owned by a Catalog; a reload replaces them wholesale.
type Script struct {
	Path        string // Absolute path for user scripts, "embedded:<rel>" for built-ins
	Name        string
	Description string
	Author      string
	Tags        string
	Icon        string   // Lowercased icon id; empty if not declared
	Categories  []string // Lowercase, deduplicated, sorted
	Bias        float64  // Subtracted from the search score; default 0
	API         float64
	Permissions []Permission
	Interpreter Interpreter
	BuiltIn     bool
	Source      string // Full script text including the metadata block
}

// HasPermission reports whether the script declared p.
func (s Script) HasPermission(p Permission) bool {
	return slices.Contains(s.Permissions, p)
}

// HasCategory reports whether the script carries the lowercase category c.
func (s Script) HasCategory(c string) bool {
	_, found := slices.BinarySearch(s.Categories, c)
	return found
}

// ErrNoMetadata is returned when the source has no /** ... **/ block.
var ErrNoMetadata = errors.New("missing /** ... **/ metadata block")

// MetadataError reports a metadata block that is not a usable JSON object.
type MetadataError struct {
	Reason string
}

func (e *MetadataError) Error() string {
	return "invalid metadata: " + e.Reason
}

// ParseMetadata extracts the metadata block from source and returns a Script
// with the declared fields populated. Source is always set. Path, Interpreter
// and BuiltIn are left for the loader to fill in.
func ParseMetadata(source string) (Script, error) {
	s := Script{Source: source}

	body := strings.TrimPrefix(source, "\xef\xbb\xbf")
	open := strings.Index(body, openMarker)
	if open < 0 {
		return s, ErrNoMetadata
	}
	rest := body[open+len(openMarker):]
	closeAt := strings.Index(rest, closeMarker)
	if closeAt < 0 {
		return s, ErrNoMetadata
	}
	block := rest[:closeAt]

	if !gjson.Valid(block) {
		return s, &MetadataError{Reason: "block is not valid JSON"}
	}
	meta := gjson.Parse(block)
	if !meta.IsObject() {
		return s, &MetadataError{Reason: "block is not a JSON object"}
	}

	s.Name = strings.TrimSpace(meta.Get("name").String())
	s.Description = meta.Get("description").String()
	s.Author = meta.Get("author").String()
	s.Tags = meta.Get("tags").String()
	s.Icon = strings.ToLower(meta.Get("icon").String())
	if b := meta.Get("bias"); b.Type == gjson.Number {
		s.Bias = b.Float()
	}
	if a := meta.Get("api"); a.Type == gjson.Number {
		s.API = a.Float()
	}
	s.Categories = normalizeCategories(listValue(meta.Get("categories")))
	s.Permissions = normalizePermissions(listValue(meta.Get("permissions")))

	if s.Name == "" {
		return s, &MetadataError{Reason: `missing "name"`}
	}
	return s, nil
}

// listValue accepts either a JSON array of strings or a comma-separated string.
// Non-string array members are ignored.
func listValue(v gjson.Result) []string {
	var out []string
	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if item.Type == gjson.String {
				out = append(out, item.Str)
			}
		}
	case v.Type == gjson.String:
		out = strings.Split(v.Str, ",")
	}
	return out
}

func normalizeCategories(raw []string) []string {
	cats := make([]string, 0, len(raw))
	for _, c := range raw {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			cats = append(cats, c)
		}
	}
	slices.Sort(cats)
	return slices.Compact(cats)
}

func normalizePermissions(raw []string) []Permission {
	var perms []Permission
	for _, p := range raw {
		switch Permission(strings.ToLower(strings.TrimSpace(p))) {
		case PermissionNetwork:
			if !slices.Contains(perms, PermissionNetwork) {
				perms = append(perms, PermissionNetwork)
			}
		}
		// Unknown permissions are dropped.
	}
	return perms
}

// NewScriptTemplate returns the source of a fresh user script named name.
func NewScriptTemplate(name string) string {
	if name == "" {
		name = "New Boop Script"
	}
	return fmt.Sprintf(`/**
  {
    "api":1,
    "name":%q,
    "description":"What does your script do?",
    "author":"",
    "icon":"broom",
    "tags":"example"
  }
**/

function main(state) {
  try {
    // Your code here
  } catch (error) {
    state.postError(String(error))
  }
}
`, name)
}
