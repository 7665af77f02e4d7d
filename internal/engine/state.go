package engine

import (
	"codeberg.org/sigterm-de/boophost/internal/logging"
)

// MessageKind tells an info message from an error message.
type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageError
)

func (k MessageKind) String() string {
	if k == MessageError {
		return "error"
	}
	return "info"
}

// Message is one status message posted by a script.
type Message struct {
	Kind MessageKind
	Text string
}

// State is the `state` object handed to a script's main function. One State
// is created per target range and discarded after the run.
//
// In whole-document mode `text` aliases fullText. In selection mode it aliases
// the selection and fullText is read-only, so that one range's run cannot
// rewrite the buffer the other ranges were cut from.
type State struct {
	scriptName   string
	fullText     string
	selection    *string
	insertIndex  int // rune offset into fullText, or -1 when there is no cursor
	insertOffset int
	inserts      []string
	messages     []Message
}

// NewDocumentState returns a whole-document state. cursor is the rune offset
// where insert() places text; a negative cursor makes insert() replace the
// whole document.
func NewDocumentState(scriptName, fullText string, cursor int) *State {
	if cursor > runeLen(fullText) {
		cursor = runeLen(fullText)
	}
	if cursor < 0 {
		cursor = -1
	}
	return &State{scriptName: scriptName, fullText: fullText, insertIndex: cursor}
}

// NewSelectionState returns a state for one selected range.
func NewSelectionState(scriptName, fullText, selection string) *State {
	sel := selection
	return &State{scriptName: scriptName, fullText: fullText, selection: &sel, insertIndex: -1}
}

// ScriptName is the name of the script the state was created for.
func (s *State) ScriptName() string { return s.scriptName }

func (s *State) IsSelection() bool { return s.selection != nil }

// Text returns the selection in selection mode and the full text otherwise.
func (s *State) Text() string {
	if s.selection != nil {
		return *s.selection
	}
	return s.fullText
}

func (s *State) SetText(v string) {
	if s.selection != nil {
		*s.selection = v
		return
	}
	s.fullText = v
}

func (s *State) FullText() string { return s.fullText }

// SetFullText replaces the document text. It is ignored in selection mode.
func (s *State) SetFullText(v string) {
	if s.selection != nil {
		logging.Log(logging.WARN, s.scriptName, "fullText is read-only while running on a selection; write ignored")
		return
	}
	s.fullText = v
}

// Selection returns the selected text; ok is false in whole-document mode.
func (s *State) Selection() (text string, ok bool) {
	if s.selection == nil {
		return "", false
	}
	return *s.selection, true
}

// SetSelection replaces the selected text. In whole-document mode there is no
// selection to replace and the write has no effect on the result.
func (s *State) SetSelection(v string) {
	if s.selection == nil {
		return
	}
	*s.selection = v
}

// Insert replaces the selection in selection mode. In whole-document mode it
// inserts v at the cursor, after anything inserted earlier in the same run,
// or replaces the document when there is no cursor.
func (s *State) Insert(v string) {
	s.inserts = append(s.inserts, v)

	if s.selection != nil {
		*s.selection = v
		return
	}
	if s.insertIndex < 0 {
		s.fullText = v
		return
	}
	runes := []rune(s.fullText)
	at := min(s.insertIndex+s.insertOffset, len(runes))
	s.fullText = string(runes[:at]) + v + string(runes[at:])
	s.insertOffset += runeLen(v)
}

func (s *State) PostInfo(msg string) {
	s.messages = append(s.messages, Message{Kind: MessageInfo, Text: msg})
}

func (s *State) PostError(msg string) {
	s.messages = append(s.messages, Message{Kind: MessageError, Text: msg})
}

// Inserts returns the values passed to Insert, in call order.
func (s *State) Inserts() []string { return append([]string(nil), s.inserts...) }

// Messages returns the posted messages in order.
func (s *State) Messages() []Message { return append([]Message(nil), s.messages...) }

// Output is the replacement for the run's target: the selection in selection
// mode, the full text otherwise.
func (s *State) Output() string { return s.Text() }

func runeLen(s string) int {
	return len([]rune(s))
}
