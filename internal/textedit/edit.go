// Package textedit applies replacements to several disjoint ranges of a text
// in one pass.
//
// All offsets and lengths count runes, not bytes.
package textedit

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrOverlap     = errors.New("textedit: ranges overlap")
	ErrOutOfBounds = errors.New("textedit: range out of bounds")
)

// Range is a span of Length runes starting at rune offset Start. A zero
// Length range is a caret.
type Range struct {
	Start  int
	Length int
}

// End is the exclusive end offset.
func (r Range) End() int { return r.Start + r.Length }

func (r Range) IsEmpty() bool { return r.Length == 0 }

func (r Range) String() string {
	return fmt.Sprintf("[%d+%d)", r.Start, r.Length)
}

// Edit replaces the text covered by Range with Replacement.
type Edit struct {
	Range       Range
	Replacement string
}

// Apply performs every edit against text and returns the result. Either all
// edits apply or none do.
func Apply(text string, edits []Edit) (string, error) {
	out, _, err := ApplyWithRanges(text, edits)
	return out, err
}

// ApplyWithRanges is Apply that also reports, for each edit in input order,
// the range its replacement occupies in the result.
//
// Edits are applied in ascending start order. A running delta holds the sum
// of len(replacement)-len(range) over the edits already applied; each later
// edit's start is shifted by it before splicing.
func ApplyWithRanges(text string, edits []Edit) (string, []Range, error) {
	runes := []rune(text)
	order, err := validate(len(runes), edits)
	if err != nil {
		return text, nil, err
	}

	placed := make([]Range, len(edits))
	delta := 0
	for _, i := range order {
		e := edits[i]
		repl := []rune(e.Replacement)
		start := e.Range.Start + delta
		end := start + e.Range.Length

		runes = slices.Concat(runes[:start:start], repl, runes[end:])

		placed[i] = Range{Start: start, Length: len(repl)}
		delta += len(repl) - e.Range.Length
	}
	return string(runes), placed, nil
}

// validate checks bounds and overlap and returns edit indexes sorted by
// start. Two carets at the same offset are allowed; a caret strictly inside
// another edit's range is not.
func validate(textLen int, edits []Edit) ([]int, error) {
	for _, e := range edits {
		if e.Range.Start < 0 || e.Range.Length < 0 || e.Range.End() > textLen {
			return nil, fmt.Errorf("%w: %s in text of length %d", ErrOutOfBounds, e.Range, textLen)
		}
	}

	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ra, rb := edits[a].Range, edits[b].Range
		if ra.Start != rb.Start {
			return ra.Start - rb.Start
		}
		return ra.Length - rb.Length
	})

	for k := 1; k < len(order); k++ {
		prev, cur := edits[order[k-1]].Range, edits[order[k]].Range
		if cur.Start < prev.End() {
			return nil, fmt.Errorf("%w: %s and %s", ErrOverlap, prev, cur)
		}
	}
	return order, nil
}
