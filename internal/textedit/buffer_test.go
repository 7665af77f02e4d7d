package textedit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/sigterm-de/boophost/internal/textedit"
)

var _ textedit.Document = (*textedit.Buffer)(nil)

func TestBufferApplyEditsRemapsRanges(t *testing.T) {
	buf := textedit.NewBuffer("Hello World123")
	require.NoError(t, buf.SetRanges([]textedit.Range{{Start: 0, Length: 5}, {Start: 10, Length: 3}}))

	err := buf.ApplyEdits([]textedit.Edit{
		{Range: textedit.Range{Start: 0, Length: 5}, Replacement: "ab"},
		{Range: textedit.Range{Start: 10, Length: 3}, Replacement: "cdef"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ab Worlcdef3", buf.Text())
	assert.Equal(t, []textedit.Range{{Start: 0, Length: 2}, {Start: 7, Length: 4}}, buf.Ranges())
}

func TestBufferCaretFollowsText(t *testing.T) {
	buf := textedit.NewBuffer("abc def")
	require.NoError(t, buf.SetRanges([]textedit.Range{{Start: 5}}))

	// An edit before the caret shifts it; an edit covering it moves it to the
	// end of the replacement.
	require.NoError(t, buf.ApplyEdits([]textedit.Edit{{Range: textedit.Range{Start: 0, Length: 3}, Replacement: "abcdef"}}))
	assert.Equal(t, []textedit.Range{{Start: 8}}, buf.Ranges())

	require.NoError(t, buf.ApplyEdits([]textedit.Edit{{Range: textedit.Range{Start: 0, Length: 10}, Replacement: "xy"}}))
	assert.Equal(t, "xy", buf.Text())
	assert.Equal(t, []textedit.Range{{Start: 2}}, buf.Ranges())
}

func TestBufferApplyEditsIsAtomic(t *testing.T) {
	buf := textedit.NewBuffer("abcdef")
	require.NoError(t, buf.SetRanges([]textedit.Range{{Start: 1, Length: 2}}))
	before := buf.Version()

	err := buf.ApplyEdits([]textedit.Edit{
		{Range: textedit.Range{Start: 0, Length: 2}, Replacement: "X"},
		{Range: textedit.Range{Start: 5, Length: 4}, Replacement: "Y"},
	})
	assert.True(t, errors.Is(err, textedit.ErrOutOfBounds))
	assert.Equal(t, "abcdef", buf.Text())
	assert.Equal(t, []textedit.Range{{Start: 1, Length: 2}}, buf.Ranges())
	assert.Equal(t, before, buf.Version())
}

func TestBufferNoEditsIsNoChange(t *testing.T) {
	buf := textedit.NewBuffer("abc")
	v := buf.Version()
	require.NoError(t, buf.ApplyEdits(nil))
	assert.Equal(t, v, buf.Version())
}

func TestBufferSetTextDropsRanges(t *testing.T) {
	buf := textedit.NewBuffer("abc")
	require.NoError(t, buf.SetRanges([]textedit.Range{{Start: 1, Length: 1}}))
	buf.SetText("xyz")
	assert.Empty(t, buf.Ranges())
	assert.Equal(t, "xyz", buf.Text())
}

func TestBufferSetRangesValidates(t *testing.T) {
	buf := textedit.NewBuffer("abc")
	assert.ErrorIs(t, buf.SetRanges([]textedit.Range{{Start: 2, Length: 5}}), textedit.ErrOutOfBounds)
	assert.ErrorIs(t, buf.SetRanges([]textedit.Range{{Start: 0, Length: 2}, {Start: 1, Length: 1}}), textedit.ErrOverlap)
	assert.Empty(t, buf.Ranges())
}

func TestBufferRangesAreCopies(t *testing.T) {
	buf := textedit.NewBuffer("abc")
	require.NoError(t, buf.SetRanges([]textedit.Range{{Start: 1, Length: 1}}))
	r := buf.Ranges()
	r[0].Start = 0
	assert.Equal(t, 1, buf.Ranges()[0].Start)
}
