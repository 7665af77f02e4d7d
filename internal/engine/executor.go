package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"

	"codeberg.org/sigterm-de/boophost/internal/logging"
	"codeberg.org/sigterm-de/boophost/internal/scripts"
)

// errTimeout is the interrupt value used to tell a timeout from other
// interrupt causes.
var errTimeout = errors.New("script execution timed out")

// poisoned globals are removed before the script is evaluated. eval is among
// them because it reaches local scope; Function is left alone since bundled
// libraries build closures with it.
var poisoned = []string{
	"fetch", "XMLHttpRequest", "WebSocket",
	"process", "global", "Buffer",
	"setTimeout", "setInterval", "clearTimeout", "clearInterval",
	"eval",
}

// Execute evaluates the script source once in a fresh runtime and calls
// main(state) for each target in order. Exceptions, timeouts and internal
// failures are posted as error messages on the target being run; the
// targets keep whatever they were changed to before the failure. It never
// panics.
func (e *Executor) Execute(ctx context.Context, script scripts.Script, targets []*State) {
	if len(targets) == 0 {
		return
	}
	current := targets[0]

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("internal engine error: %v", r)
			logging.Log(logging.ERROR, script.Name, msg)
			current.PostError(errorMessage(script.Name, msg))
		}
	}()

	vm := goja.New()
	for _, name := range poisoned {
		vm.Set(name, goja.Undefined())
	}

	registry := require.NewRegistry(require.WithLoader(boopModuleLoader))
	registerNativeModules(registry)
	registry.Enable(vm)

	registerBtoaAtob(vm)
	registerConsole(vm, script.Name)

	prog, err := goja.Compile(script.Name, script.Source, false)
	if err != nil {
		logging.Log(logging.ERROR, script.Name, err.Error())
		current.PostError(errorMessage(script.Name, err.Error()))
		return
	}

	var timedOut atomic.Bool
	timer := time.AfterFunc(e.timeout, func() {
		timedOut.Store(true)
		vm.Interrupt(errTimeout)
	})
	defer timer.Stop()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	if _, err := vm.RunProgram(prog); err != nil {
		e.report(current, script.Name, err, timedOut.Load())
		return
	}

	mainFn, ok := goja.AssertFunction(vm.Get("main"))
	if !ok {
		current.PostError(errorMessage(script.Name, "script does not define a top-level function main(state)"))
		return
	}

	allowNetwork := script.HasPermission(scripts.PermissionNetwork)
	for _, st := range targets {
		current = st
		obj, err := e.bindState(ctx, vm, st, allowNetwork)
		if err != nil {
			panic(err)
		}
		if _, err := mainFn(goja.Undefined(), obj); err != nil {
			var interrupted *goja.InterruptedError
			e.report(st, script.Name, err, timedOut.Load())
			if errors.As(err, &interrupted) {
				return
			}
		}
	}
}

// report logs a script failure and posts it to st.
func (e *Executor) report(st *State, name string, err error, timedOut bool) {
	var msg string
	switch {
	case timedOut:
		msg = fmt.Sprintf("script execution timed out after %v", e.timeout)
	default:
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			msg = fmt.Sprintf("script execution interrupted: %v", interrupted.Value())
		} else {
			msg = exceptionMessage(err)
		}
	}
	logging.Log(logging.ERROR, name, msg)
	st.PostError(errorMessage(name, msg))
}

func errorMessage(name, msg string) string {
	return fmt.Sprintf("[%s] Error: %s", name, msg)
}

// exceptionMessage prefers the thrown value's message property, so that
// `throw new Error("boom")` reads as "boom".
func exceptionMessage(err error) string {
	var exc *goja.Exception
	if !errors.As(err, &exc) {
		return err.Error()
	}
	val := exc.Value()
	if val == nil {
		return exc.Error()
	}
	if obj, ok := val.(*goja.Object); ok {
		if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) && !goja.IsNull(m) {
			return m.String()
		}
	}
	return val.String()
}

// bindState builds the JS view of st. Property accessors go straight to st
// so reads always see earlier writes.
func (e *Executor) bindState(ctx context.Context, vm *goja.Runtime, st *State, allowNetwork bool) (*goja.Object, error) {
	obj := vm.NewObject()

	accessors := []struct {
		name   string
		getter func(goja.FunctionCall) goja.Value
		setter func(goja.FunctionCall) goja.Value
	}{
		{
			name:   "text",
			getter: func(goja.FunctionCall) goja.Value { return vm.ToValue(st.Text()) },
			setter: func(call goja.FunctionCall) goja.Value {
				st.SetText(call.Argument(0).String())
				return goja.Undefined()
			},
		},
		{
			name:   "fullText",
			getter: func(goja.FunctionCall) goja.Value { return vm.ToValue(st.FullText()) },
			setter: func(call goja.FunctionCall) goja.Value {
				st.SetFullText(call.Argument(0).String())
				return goja.Undefined()
			},
		},
		{
			name: "selection",
			getter: func(goja.FunctionCall) goja.Value {
				if sel, ok := st.Selection(); ok {
					return vm.ToValue(sel)
				}
				return goja.Null()
			},
			setter: func(call goja.FunctionCall) goja.Value {
				st.SetSelection(call.Argument(0).String())
				return goja.Undefined()
			},
		},
	}
	for _, a := range accessors {
		if err := obj.DefineAccessorProperty(a.name, vm.ToValue(a.getter), vm.ToValue(a.setter),
			goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
			return nil, fmt.Errorf("bind %s: %w", a.name, err)
		}
	}
	if err := obj.DefineAccessorProperty("isSelection",
		vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(st.IsSelection()) }),
		nil, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return nil, fmt.Errorf("bind isSelection: %w", err)
	}

	methods := map[string]func(goja.FunctionCall) goja.Value{
		"postInfo": func(call goja.FunctionCall) goja.Value {
			st.PostInfo(call.Argument(0).String())
			return goja.Undefined()
		},
		"postError": func(call goja.FunctionCall) goja.Value {
			st.PostError(call.Argument(0).String())
			return goja.Undefined()
		},
		"insert": func(call goja.FunctionCall) goja.Value {
			st.Insert(call.Argument(0).String())
			return goja.Undefined()
		},
		"fetch": func(call goja.FunctionCall) goja.Value {
			method := optionalString(call.Argument(1))
			body := optionalString(call.Argument(2))
			m := ""
			if method != nil {
				m = *method
			}
			res, ok := e.fetch(ctx, st, allowNetwork, call.Argument(0).String(), m, body)
			if !ok {
				return goja.Undefined()
			}
			return vm.ToValue(res)
		},
	}
	for name, fn := range methods {
		if err := obj.Set(name, fn); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return obj, nil
}

func optionalString(v goja.Value) *string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	s := v.String()
	return &s
}

// registerBtoaAtob registers the browser base64 globals. btoa only accepts
// Latin-1 input (every code point at most U+00FF) and throws
// InvalidCharacterError otherwise, as browsers do.
func registerBtoaAtob(vm *goja.Runtime) {
	vm.Set("btoa", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return vm.ToValue("")
		}
		runes := []rune(call.Arguments[0].String())
		buf := make([]byte, len(runes))
		for i, r := range runes {
			if r > 0xFF {
				panic(vm.NewGoError(fmt.Errorf("InvalidCharacterError: btoa received a character (U+%04X) outside the Latin-1 range", r)))
			}
			buf[i] = byte(r)
		}
		return vm.ToValue(base64.StdEncoding.EncodeToString(buf))
	})

	vm.Set("atob", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return vm.ToValue("")
		}
		decoded, err := base64.StdEncoding.DecodeString(call.Arguments[0].String())
		if err != nil {
			panic(vm.NewGoError(fmt.Errorf("atob: %w", err)))
		}
		return vm.ToValue(string(decoded))
	})
}

// registerConsole sends console.log and console.error to the log file.
func registerConsole(vm *goja.Runtime, scriptName string) {
	console := vm.NewObject()
	logAt := func(level logging.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			logging.Log(level, scriptName, strings.Join(parts, " "))
			return goja.Undefined()
		}
	}
	console.Set("log", logAt(logging.INFO))
	console.Set("error", logAt(logging.ERROR))
	vm.Set("console", console)
}
