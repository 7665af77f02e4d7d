package engine

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"gopkg.in/yaml.v3"
	"howett.net/plist"

	"codeberg.org/sigterm-de/boophost/assets"
)

// boopPrefix is the only require() namespace scripts may load from.
const boopPrefix = "@boop/"

// libFS serves @boop/<name> as lib/<name>.js.
var libFS fs.FS = assets.Lib()

// nativeModules are @boop/ modules implemented in Go. They take precedence
// over a lib file of the same name.
var nativeModules = map[string]require.ModuleLoader{
	boopPrefix + "yaml":  yamlModule,
	boopPrefix + "plist": plistModule,
}

func registerNativeModules(registry *require.Registry) {
	for name, loader := range nativeModules {
		registry.RegisterNativeModule(name, loader)
	}
}

// boopModuleLoader serves @boop/ lib files from the embedded FS and rejects
// every other path. goja_nodejs resolves require("@boop/x") to
// "node_modules/@boop/x" (then tries ".js" suffixes) before asking the loader.
func boopModuleLoader(path string) ([]byte, error) {
	modPath := strings.TrimPrefix(path, "node_modules/")
	name, ok := strings.CutPrefix(modPath, boopPrefix)
	if !ok {
		return nil, fmt.Errorf("cannot find module '%s'", path)
	}
	if !strings.HasSuffix(name, ".js") {
		name += ".js"
	}
	data, err := fs.ReadFile(libFS, name)
	if err != nil {
		return nil, require.ModuleFileDoesNotExistError
	}
	return data, nil
}

// stringArg returns argument i as a string or throws a TypeError naming fn.
func stringArg(vm *goja.Runtime, call goja.FunctionCall, fn string) string {
	if len(call.Arguments) == 0 {
		panic(vm.NewTypeError(fn + " requires an argument"))
	}
	return call.Arguments[0].String()
}

// yamlModule exposes yaml.parse and yaml.stringify.
func yamlModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)

	exports.Set("parse", func(call goja.FunctionCall) goja.Value {
		src := stringArg(vm, call, "yaml.parse")
		var out any
		if err := yaml.Unmarshal([]byte(src), &out); err != nil {
			panic(vm.NewGoError(fmt.Errorf("yaml.parse: %w", err)))
		}
		return vm.ToValue(stringKeys(out))
	})

	exports.Set("stringify", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("yaml.stringify requires an argument"))
		}
		b, err := yaml.Marshal(call.Arguments[0].Export())
		if err != nil {
			panic(vm.NewGoError(fmt.Errorf("yaml.stringify: %w", err)))
		}
		return vm.ToValue(string(b))
	})
}

// plistModule exposes plist.parse (XML, OpenStep or binary input) and
// plist.stringify (XML output).
func plistModule(vm *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").(*goja.Object)

	parse := func(fn string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			src := stringArg(vm, call, fn)
			var out any
			if _, err := plist.Unmarshal([]byte(src), &out); err != nil {
				panic(vm.NewGoError(fmt.Errorf("%s: %w", fn, err)))
			}
			return vm.ToValue(out)
		}
	}
	exports.Set("parse", parse("plist.parse"))
	exports.Set("parseBinary", parse("plist.parseBinary"))

	exports.Set("stringify", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("plist.stringify requires an argument"))
		}
		b, err := plist.MarshalIndent(call.Arguments[0].Export(), plist.XMLFormat, "\t")
		if err != nil {
			panic(vm.NewGoError(fmt.Errorf("plist.stringify: %w", err)))
		}
		return vm.ToValue(string(b))
	})
}

// stringKeys rewrites map[any]any values produced by yaml.v3 for non-string
// keys into map[string]any so goja exposes them as plain objects.
func stringKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, vv := range val {
			val[k] = stringKeys(vv)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[fmt.Sprint(k)] = stringKeys(vv)
		}
		return out
	case []any:
		for i, vv := range val {
			val[i] = stringKeys(vv)
		}
		return val
	default:
		return val
	}
}
