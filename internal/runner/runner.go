// Package runner ties the catalog, the interpreter strategies, the range
// engine and the history together: it is what the front end calls to run a
// script against a document.
package runner

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/sigterm-de/boophost/internal/engine"
	"codeberg.org/sigterm-de/boophost/internal/history"
	"codeberg.org/sigterm-de/boophost/internal/logging"
	"codeberg.org/sigterm-de/boophost/internal/scripts"
	"codeberg.org/sigterm-de/boophost/internal/status"
	"codeberg.org/sigterm-de/boophost/internal/textedit"
)

var (
	ErrNoLastScript   = errors.New("no script has been run yet")
	ErrScriptNotFound = errors.New("script not found")
)

// Catalog is the part of *scripts.Catalog the runner needs.
type Catalog interface {
	Find(name string) (scripts.Script, bool)
	Reload() scripts.LoadResult
}

// Resolver picks the strategy for a script. *Dispatcher implements it.
type Resolver interface {
	Resolve(script scripts.Script) (Strategy, error)
}

// Runner runs scripts against documents and keeps the undo history. It is not
// safe for concurrent use.
type Runner struct {
	catalog  Catalog
	resolver Resolver
	history  *history.History
	last     string
}

// New returns a runner. A nil hist gets a history of the default depth.
func New(catalog Catalog, resolver Resolver, hist *history.History) *Runner {
	if hist == nil {
		hist = history.New(history.DefaultDepth)
	}
	return &Runner{catalog: catalog, resolver: resolver, history: hist}
}

// History exposes the undo/redo stacks for labels and depth changes.
func (r *Runner) History() *history.History { return r.history }

// LastScript returns the name of the script RunAgain would run.
func (r *Runner) LastScript() (string, bool) {
	return r.last, r.last != ""
}

// Run executes script against doc and commits the result as one edit.
//
// With no selected characters the script sees the whole document, and the
// start of the first range (if any) is the insert position. Otherwise the
// script runs once per non-empty range. Messages reach sink in the order the
// script posted them, target by target.
func (r *Runner) Run(ctx context.Context, script scripts.Script, doc textedit.Document, sink status.Sink) error {
	strategy, err := r.resolver.Resolve(script)
	if err != nil {
		logging.Logf(logging.WARN, script.Name, "not run: %v", err)
		return err
	}

	text := doc.Text()
	ranges := doc.Ranges()
	r.history.RecordPreRun(history.Snapshot{Text: text, Ranges: ranges, ScriptName: script.Name})
	r.last = script.Name

	states, spans := targets(script.Name, text, ranges)
	strategy.Execute(ctx, script, states)

	runes := []rune(text)
	var edits []textedit.Edit
	for i, st := range states {
		for _, m := range st.Messages() {
			post(sink, m)
		}
		out := st.Output()
		if out == string(runes[spans[i].Start:spans[i].End()]) {
			continue
		}
		edits = append(edits, textedit.Edit{Range: spans[i], Replacement: out})
	}

	if err := doc.ApplyEdits(edits); err != nil {
		logging.Logf(logging.ERROR, script.Name, "apply result: %v", err)
		return fmt.Errorf("apply %s: %w", script.Name, err)
	}
	return nil
}

// RunAgain runs the last script again, looked up by name so a reload never
// leaves a stale descriptor behind.
func (r *Runner) RunAgain(ctx context.Context, doc textedit.Document, sink status.Sink) error {
	if r.last == "" {
		return ErrNoLastScript
	}
	script, ok := r.catalog.Find(r.last)
	if !ok {
		return fmt.Errorf("%w: %q", ErrScriptNotFound, r.last)
	}
	return r.Run(ctx, script, doc, sink)
}

// Undo restores the state before the most recent run. It reports false when
// there is nothing to undo.
func (r *Runner) Undo(doc textedit.Document) bool {
	s, ok := r.history.Undo(snapshot(doc))
	if ok {
		restore(doc, s)
	}
	return ok
}

// Redo reapplies the most recently undone run.
func (r *Runner) Redo(doc textedit.Document) bool {
	s, ok := r.history.Redo(snapshot(doc))
	if ok {
		restore(doc, s)
	}
	return ok
}

// Clear drops the undo and redo history.
func (r *Runner) Clear() {
	r.history.Clear()
}

// Reload reloads the catalog and forgets the last script.
func (r *Runner) Reload(sink status.Sink) scripts.LoadResult {
	r.last = ""
	result := r.catalog.Reload()
	sink.PostInfo("Reloaded Scripts")
	return result
}

// targets builds one state per target and the span of the document each
// state's output replaces.
func targets(name, text string, ranges []textedit.Range) ([]*engine.State, []textedit.Range) {
	runes := []rune(text)
	selected := 0
	for _, rg := range ranges {
		selected += rg.Length
	}

	if selected == 0 {
		cursor := -1
		if len(ranges) > 0 {
			cursor = ranges[0].Start
		}
		return []*engine.State{engine.NewDocumentState(name, text, cursor)},
			[]textedit.Range{{Start: 0, Length: len(runes)}}
	}

	var states []*engine.State
	var spans []textedit.Range
	for _, rg := range ranges {
		if rg.IsEmpty() {
			continue
		}
		states = append(states, engine.NewSelectionState(name, text, string(runes[rg.Start:rg.End()])))
		spans = append(spans, rg)
	}
	return states, spans
}

func snapshot(doc textedit.Document) history.Snapshot {
	return history.Snapshot{Text: doc.Text(), Ranges: doc.Ranges()}
}

func restore(doc textedit.Document, s history.Snapshot) {
	doc.SetText(s.Text)
	if err := doc.SetRanges(s.Ranges); err != nil {
		logging.Logf(logging.WARN, s.ScriptName, "restore ranges: %v", err)
	}
}

func post(sink status.Sink, m engine.Message) {
	switch m.Kind {
	case engine.MessageError:
		sink.PostError(m.Text)
	case engine.MessageInfo:
		sink.PostInfo(m.Text)
	}
}
