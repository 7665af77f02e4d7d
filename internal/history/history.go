// Package history keeps bounded undo and redo stacks of document snapshots
// taken before each script run.
package history

import (
	"slices"
	"sync"

	"codeberg.org/sigterm-de/boophost/internal/textedit"
)

// DefaultDepth is the undo depth used when none is configured.
const DefaultDepth = 20

// Snapshot is the document state captured around a run. It refers to the
// script by name only, so it stays valid across catalog reloads.
type Snapshot struct {
	Text       string
	Ranges     []textedit.Range
	ScriptName string
}

// History holds the undo and redo stacks. It is safe for concurrent use.
type History struct {
	mu sync.Mutex

	undoStack []Snapshot
	redoStack []Snapshot

	depth int
}

// New returns an empty history keeping at most depth undo entries. A depth
// of zero or less selects DefaultDepth.
func New(depth int) *History {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &History{depth: depth}
}

// RecordPreRun pushes s onto the undo stack, clears the redo stack and
// evicts the oldest entries beyond the depth.
func (h *History) RecordPreRun(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = append(h.undoStack, clone(s))
	h.redoStack = nil
	h.trimLocked()
}

// Undo pops the newest undo entry and pushes current onto the redo stack,
// labelled with the popped entry's script name. ok is false, and nothing
// changes, when there is nothing to undo.
func (h *History) Undo(current Snapshot) (s Snapshot, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok = pop(&h.undoStack)
	if !ok {
		return Snapshot{}, false
	}
	current = clone(current)
	current.ScriptName = s.ScriptName
	h.redoStack = append(h.redoStack, current)
	return s, true
}

// Redo mirrors Undo.
func (h *History) Redo(current Snapshot) (s Snapshot, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok = pop(&h.redoStack)
	if !ok {
		return Snapshot{}, false
	}
	current = clone(current)
	current.ScriptName = s.ScriptName
	h.undoStack = append(h.undoStack, current)
	h.trimLocked()
	return s, true
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoStack = nil
	h.redoStack = nil
}

// CanClear reports whether either stack holds an entry.
func (h *History) CanClear() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0 || len(h.redoStack) > 0
}

// PeekUndoName returns the script name of the entry Undo would restore.
func (h *History) PeekUndoName() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return peekName(h.undoStack)
}

// PeekRedoName returns the script name of the entry Redo would restore.
func (h *History) PeekRedoName() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return peekName(h.redoStack)
}

func (h *History) UndoLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

func (h *History) RedoLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Depth returns the maximum number of undo entries kept.
func (h *History) Depth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.depth
}

// SetDepth changes the bound and evicts the oldest undo entries beyond it.
func (h *History) SetDepth(depth int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if depth <= 0 {
		depth = DefaultDepth
	}
	h.depth = depth
	h.trimLocked()
}

func (h *History) trimLocked() {
	if excess := len(h.undoStack) - h.depth; excess > 0 {
		h.undoStack = slices.Delete(h.undoStack, 0, excess)
	}
}

func pop(stack *[]Snapshot) (Snapshot, bool) {
	n := len(*stack)
	if n == 0 {
		return Snapshot{}, false
	}
	s := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return s, true
}

func peekName(stack []Snapshot) (string, bool) {
	if len(stack) == 0 {
		return "", false
	}
	return stack[len(stack)-1].ScriptName, true
}

func clone(s Snapshot) Snapshot {
	s.Ranges = slices.Clone(s.Ranges)
	return s
}
