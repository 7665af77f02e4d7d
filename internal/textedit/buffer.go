package textedit

import (
	"slices"
	"sync"
)

// Document is the editable text a run reads from and writes back to.
type Document interface {
	Text() string
	Ranges() []Range
	// SetText replaces the text and drops every range.
	SetText(text string)
	SetRanges(ranges []Range) error
	// ApplyEdits commits edits as one transaction.
	ApplyEdits(edits []Edit) error
}

// Buffer is an in-memory Document. It is safe for concurrent use.
type Buffer struct {
	mu      sync.RWMutex
	text    string
	ranges  []Range
	version uint64
}

// NewBuffer returns a buffer holding text with no ranges.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text}
}

func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Ranges returns a copy of the current selection ranges.
func (b *Buffer) Ranges() []Range {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.ranges)
}

// Version increases on every change to text or ranges.
func (b *Buffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.text = text
	b.ranges = nil
	b.version++
}

// SetRanges replaces the selection. Ranges must lie inside the text and must
// not overlap.
func (b *Buffer) SetRanges(ranges []Range) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	edits := make([]Edit, len(ranges))
	for i, r := range ranges {
		edits[i] = Edit{Range: r}
	}
	if _, err := validate(len([]rune(b.text)), edits); err != nil {
		return err
	}
	b.ranges = slices.Clone(ranges)
	b.version++
	return nil
}

// ApplyEdits applies edits atomically. A range that matched an edit exactly
// now covers its replacement; every other range is carried along with the
// text around it.
func (b *Buffer) ApplyEdits(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	text, placed, err := ApplyWithRanges(b.text, edits)
	if err != nil {
		return err
	}

	ranges := make([]Range, len(b.ranges))
	for i, r := range b.ranges {
		if j := slices.IndexFunc(edits, func(e Edit) bool { return e.Range == r }); j >= 0 {
			ranges[i] = placed[j]
			continue
		}
		start := mapOffset(r.Start, edits, placed)
		end := max(mapOffset(r.End(), edits, placed), start)
		ranges[i] = Range{Start: start, Length: end - start}
	}

	b.text = text
	b.ranges = ranges
	b.version++
	return nil
}

// mapOffset carries an offset in the old text to the new text. An offset
// inside a replaced span moves to the end of its replacement.
func mapOffset(off int, edits []Edit, placed []Range) int {
	shift := 0
	for i, e := range edits {
		switch {
		case off >= e.Range.End() && !(e.Range.IsEmpty() && off == e.Range.Start):
			shift += placed[i].Length - e.Range.Length
		case off > e.Range.Start:
			return placed[i].End()
		}
	}
	return off + shift
}
