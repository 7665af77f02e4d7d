package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"codeberg.org/sigterm-de/boophost/internal/scripts"
	"codeberg.org/sigterm-de/boophost/internal/textedit"
)

const sessionHelp = `commands:
  search [query]       list matching scripts ("*" or nothing for all)
  run <name>           run a script on the document
  again                run the last script again
  undo | redo          step through the run history
  history              show what undo and redo would do
  clear                forget the run history
  select [start:len]…  set the selection ranges (none: clear)
  print                print the document
  reload               reload scripts from disk
  quit`

// Session is an interactive, line-oriented editing session over one
// document.
type Session struct {
	app *App
	doc *textedit.Buffer
	out io.Writer

	// Prompt is written before each command when non-empty.
	Prompt string
}

func NewSession(a *App, doc *textedit.Buffer, out io.Writer) *Session {
	return &Session{app: a, doc: doc, out: out}
}

// Run reads commands from in until quit or EOF.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		s.printf("%s", s.Prompt)
		if !sc.Scan() {
			return sc.Err()
		}
		if quit := s.exec(ctx, strings.TrimSpace(sc.Text())); quit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (s *Session) exec(ctx context.Context, line string) (quit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	r := s.app.Runner
	switch cmd {
	case "":
	case "quit", "exit":
		return true
	case "help":
		s.printf("%s\n", sessionHelp)
	case "search":
		for _, sc := range s.app.Catalog.Search(arg) {
			s.printf("%s\n", Describe(sc))
		}
	case "run":
		script, err := s.app.Script(arg)
		if err != nil {
			s.app.Status.PostError(err.Error())
			return false
		}
		s.report(r.Run(ctx, script, s.doc, s.app.Status))
	case "again":
		s.report(r.RunAgain(ctx, s.doc, s.app.Status))
	case "undo":
		name, _ := r.History().PeekUndoName()
		if !r.Undo(s.doc) {
			s.printf("nothing to undo\n")
			return false
		}
		s.printf("undid %s\n", name)
	case "redo":
		name, _ := r.History().PeekRedoName()
		if !r.Redo(s.doc) {
			s.printf("nothing to redo\n")
			return false
		}
		s.printf("redid %s\n", name)
	case "history":
		s.printHistory()
	case "clear":
		r.Clear()
	case "select":
		ranges, err := ParseRanges(strings.Fields(arg))
		if err == nil {
			err = s.doc.SetRanges(ranges)
		}
		s.report(err)
	case "print":
		s.printf("%s\n", s.doc.Text())
	case "reload":
		r.Reload(s.app.Status)
	default:
		s.app.Status.PostError(fmt.Sprintf("unknown command %q (try help)", cmd))
	}
	return false
}

func (s *Session) printHistory() {
	h := s.app.Runner.History()
	if name, ok := h.PeekUndoName(); ok {
		s.printf("undo: %s (%d of %d)\n", name, h.UndoLen(), h.Depth())
	} else {
		s.printf("undo: -\n")
	}
	if name, ok := h.PeekRedoName(); ok {
		s.printf("redo: %s (%d)\n", name, h.RedoLen())
	} else {
		s.printf("redo: -\n")
	}
}

func (s *Session) report(err error) {
	if err != nil {
		s.app.Status.PostError(err.Error())
	}
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}

// Describe formats one catalog line: name, interpreter badge, description.
func Describe(s scripts.Script) string {
	return fmt.Sprintf("%-28s %-5s %s", s.Name, s.Interpreter.ShortName(), s.Description)
}

// ParseRanges parses "start:length" pairs in character offsets.
func ParseRanges(args []string) ([]textedit.Range, error) {
	ranges := make([]textedit.Range, 0, len(args))
	for _, a := range args {
		start, length, ok := strings.Cut(a, ":")
		if !ok {
			return nil, fmt.Errorf("range %q: want start:length", a)
		}
		st, err := strconv.Atoi(start)
		if err != nil || st < 0 {
			return nil, fmt.Errorf("range %q: bad start", a)
		}
		n, err := strconv.Atoi(length)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("range %q: bad length", a)
		}
		ranges = append(ranges, textedit.Range{Start: st, Length: n})
	}
	return ranges, nil
}
