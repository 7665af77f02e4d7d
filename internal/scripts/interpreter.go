package scripts

import (
	"fmt"
	"strings"
)

// Interpreter is the closed set of runtimes a script can target. The file
// extension of the script decides which one applies.
type Interpreter int

const (
	JavaScript Interpreter = iota // Embedded goja runtime
	Python
	Ruby
	Perl
	Lua
	Node
)

// Interpreters lists every interpreter in declaration order.
var Interpreters = []Interpreter{JavaScript, Python, Ruby, Perl, Lua, Node}

// InterpreterForExtension maps a file extension (with or without the leading
// dot, any case) to an interpreter. Unknown extensions map to JavaScript.
func InterpreterForExtension(ext string) Interpreter {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "py":
		return Python
	case "rb":
		return Ruby
	case "pl":
		return Perl
	case "lua":
		return Lua
	case "njs":
		return Node
	default:
		return JavaScript
	}
}

// Supported reports whether files with ext are loaded as scripts at all.
func Supported(ext string) bool {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "js", "py", "rb", "pl", "lua", "njs":
		return true
	}
	return false
}

// ParseInterpreter resolves a settings id ("py", "lua", ...) to an interpreter.
func ParseInterpreter(id string) (Interpreter, error) {
	for _, in := range Interpreters {
		if in.ID() == strings.ToLower(id) {
			return in, nil
		}
	}
	return 0, fmt.Errorf("unknown interpreter %q", id)
}

// Embedded reports whether the interpreter runs in-process.
func (in Interpreter) Embedded() bool {
	return in == JavaScript
}

// ID is the short identifier used in configuration keys.
func (in Interpreter) ID() string {
	switch in {
	case JavaScript:
		return "js"
	case Python:
		return "py"
	case Ruby:
		return "rb"
	case Perl:
		return "pl"
	case Lua:
		return "lua"
	case Node:
		return "node"
	}
	panic(fmt.Sprintf("scripts: invalid interpreter %d", int(in)))
}

func (in Interpreter) String() string {
	switch in {
	case JavaScript:
		return "JavaScript"
	case Python:
		return "Python"
	case Ruby:
		return "Ruby"
	case Perl:
		return "Perl"
	case Lua:
		return "Lua"
	case Node:
		return "Node.js"
	}
	return fmt.Sprintf("Interpreter(%d)", int(in))
}

// ShortName is the badge shown next to a script in listings.
func (in Interpreter) ShortName() string {
	if in == Node {
		return "NODE"
	}
	return strings.ToUpper(in.ID())
}

// ModuleExtension is the extension appended to require()d module names.
func (in Interpreter) ModuleExtension() string {
	switch in {
	case JavaScript:
		return ".js"
	case Python:
		return ".py"
	case Ruby:
		return ".rb"
	case Perl:
		return ".pl"
	case Lua:
		return ".lua"
	case Node:
		return ".njs"
	}
	panic(fmt.Sprintf("scripts: invalid interpreter %d", int(in)))
}

// Launcher is the path of the bridge launcher inside the embedded assets,
// or "" for the embedded interpreter.
func (in Interpreter) Launcher() string {
	switch in {
	case JavaScript:
		return ""
	case Python:
		return "bridges/python/bridge.py"
	case Ruby:
		return "bridges/ruby/bridge.rb"
	case Perl:
		return "bridges/perl/bridge.pl"
	case Lua:
		return "bridges/lua/bridge.lua"
	case Node:
		return "bridges/node/bridge.js"
	}
	panic(fmt.Sprintf("scripts: invalid interpreter %d", int(in)))
}

// DefaultRuntime is the runtime binary used when no override is configured.
func (in Interpreter) DefaultRuntime() string {
	switch in {
	case JavaScript:
		return ""
	case Python:
		return "python3"
	case Ruby:
		return "ruby"
	case Perl:
		return "perl"
	case Lua:
		return "lua"
	case Node:
		return "node"
	}
	panic(fmt.Sprintf("scripts: invalid interpreter %d", int(in)))
}

// DefaultRequireKeyword is the name under which the bridge exposes its module
// loader when neither a per-interpreter nor a global override is set.
func (in Interpreter) DefaultRequireKeyword() string {
	switch in {
	case JavaScript, Node:
		return "require"
	case Python, Ruby, Perl, Lua:
		return "boop_require"
	}
	panic(fmt.Sprintf("scripts: invalid interpreter %d", int(in)))
}
