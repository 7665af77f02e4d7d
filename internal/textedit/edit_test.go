package textedit_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"codeberg.org/sigterm-de/boophost/internal/textedit"
)

// The second edit lands 5-2=3 runes earlier than its original start.
func TestApplyShiftsLaterRangesByDelta(t *testing.T) {
	cases := []struct {
		second textedit.Range
		want   string
	}{
		{textedit.Range{Start: 10, Length: 3}, "ab Worlcdef3"}, // replaces "d12"
		{textedit.Range{Start: 12, Length: 1}, "ab World1cdef3"},
	}
	for _, tc := range cases {
		t.Run(tc.second.String(), func(t *testing.T) {
			got, err := textedit.Apply("Hello World123", []textedit.Edit{
				{Range: textedit.Range{Start: 0, Length: 5}, Replacement: "ab"},
				{Range: tc.second, Replacement: "cdef"},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestApplyOrderIndependent(t *testing.T) {
	got, err := textedit.Apply("Hello World123", []textedit.Edit{
		{Range: textedit.Range{Start: 12, Length: 1}, Replacement: "cdef"},
		{Range: textedit.Range{Start: 0, Length: 5}, Replacement: "ab"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ab World1cdef3", got)
}

func TestApplyWithRangesReportsPlacement(t *testing.T) {
	out, placed, err := textedit.ApplyWithRanges("Hello World123", []textedit.Edit{
		{Range: textedit.Range{Start: 10, Length: 3}, Replacement: "cdef"},
		{Range: textedit.Range{Start: 0, Length: 5}, Replacement: "ab"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ab Worlcdef3", out)
	assert.Equal(t, []textedit.Range{{Start: 7, Length: 4}, {Start: 0, Length: 2}}, placed)
	runes := []rune(out)
	assert.Equal(t, "cdef", string(runes[7:11]))
}

func TestApplyRuneOffsets(t *testing.T) {
	got, err := textedit.Apply("héllo wörld", []textedit.Edit{
		{Range: textedit.Range{Start: 1, Length: 1}, Replacement: "e"},
		{Range: textedit.Range{Start: 7, Length: 1}, Replacement: "oo"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello woorld", got)
}

func TestApplyInsertionsAndDeletions(t *testing.T) {
	got, err := textedit.Apply("abc", []textedit.Edit{
		{Range: textedit.Range{Start: 0, Length: 0}, Replacement: ">"},
		{Range: textedit.Range{Start: 1, Length: 1}, Replacement: ""},
		{Range: textedit.Range{Start: 3, Length: 0}, Replacement: "<"},
	})
	require.NoError(t, err)
	assert.Equal(t, ">ac<", got)
}

func TestApplyErrors(t *testing.T) {
	cases := []struct {
		name  string
		edits []textedit.Edit
		want  error
	}{
		{"overlap", []textedit.Edit{{Range: textedit.Range{Start: 0, Length: 3}}, {Range: textedit.Range{Start: 2, Length: 2}}}, textedit.ErrOverlap},
		{"caret inside range", []textedit.Edit{{Range: textedit.Range{Start: 0, Length: 3}}, {Range: textedit.Range{Start: 1}}}, textedit.ErrOverlap},
		{"past end", []textedit.Edit{{Range: textedit.Range{Start: 3, Length: 3}}}, textedit.ErrOutOfBounds},
		{"negative start", []textedit.Edit{{Range: textedit.Range{Start: -1, Length: 1}}}, textedit.ErrOutOfBounds},
		{"negative length", []textedit.Edit{{Range: textedit.Range{Start: 1, Length: -1}}}, textedit.ErrOutOfBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := textedit.Apply("abcde", tc.edits)
			assert.True(t, errors.Is(err, tc.want), "err = %v", err)
			assert.Equal(t, "abcde", got)
		})
	}
}

func TestAdjacentRangesAreNotOverlapping(t *testing.T) {
	got, err := textedit.Apply("abcd", []textedit.Edit{
		{Range: textedit.Range{Start: 0, Length: 2}, Replacement: "X"},
		{Range: textedit.Range{Start: 2, Length: 2}, Replacement: "Y"},
	})
	require.NoError(t, err)
	assert.Equal(t, "XY", got)
}

// Applying disjoint edits in one pass matches applying them one at a time
// from the end of the text backwards, where no offset ever needs shifting.
func TestApplyMatchesBackToFrontProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-zé ]{0,40}`).Draw(t, "text")
		runes := []rune(text)

		// Cut the text into disjoint ranges by drawing sorted boundaries.
		var edits []textedit.Edit
		pos := 0
		for pos < len(runes) && len(edits) < 5 {
			start := rapid.IntRange(pos, len(runes)).Draw(t, "start")
			length := rapid.IntRange(0, len(runes)-start).Draw(t, "length")
			repl := rapid.StringMatching(`[A-Z]{0,6}`).Draw(t, "repl")
			edits = append(edits, textedit.Edit{Range: textedit.Range{Start: start, Length: length}, Replacement: repl})
			pos = start + length + 1
		}

		got, err := textedit.Apply(text, edits)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}

		want := runes
		for i := len(edits) - 1; i >= 0; i-- {
			e := edits[i]
			want = append(append(append([]rune{}, want[:e.Range.Start]...), []rune(e.Replacement)...), want[e.Range.End():]...)
		}
		if got != string(want) {
			t.Fatalf("Apply = %q; back-to-front = %q", got, string(want))
		}

		// Identity replacements leave the text unchanged.
		same := make([]textedit.Edit, len(edits))
		for i, e := range edits {
			same[i] = textedit.Edit{Range: e.Range, Replacement: string(runes[e.Range.Start:e.Range.End()])}
		}
		unchanged, err := textedit.Apply(text, same)
		if err != nil || unchanged != text {
			t.Fatalf("identity edits changed %q to %q (%v)", text, unchanged, err)
		}
	})
}

func TestRangeString(t *testing.T) {
	assert.True(t, strings.Contains(textedit.Range{Start: 2, Length: 3}.String(), "2"))
	assert.Equal(t, 5, textedit.Range{Start: 2, Length: 3}.End())
	assert.True(t, textedit.Range{Start: 2}.IsEmpty())
}
