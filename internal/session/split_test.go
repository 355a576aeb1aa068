package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/pdftest"
	"github.com/local/doctools/internal/pdftext"
)

func mustSplit(t *testing.T, s SplitState, a Action) SplitState {
	t.Helper()
	next, err := ReduceSplit(s, a)
	require.NoError(t, err)
	return next
}

func TestReduceSplitTransitions(t *testing.T) {
	s := SplitState{Phase: SplitEmpty}
	_, err := ReduceSplit(s, TogglePage{Page: 1})
	assert.True(t, docerr.IsValidation(err), "toggle needs a file")

	s = mustSplit(t, s, FileLoaded{File: "a.pdf", PageCount: 4})
	assert.Equal(t, SplitLoaded, s.Phase)
	assert.Equal(t, 4, s.PageCount())
	assert.False(t, CanProduce(s))

	s = mustSplit(t, s, TogglePage{Page: 3})
	s = mustSplit(t, s, TogglePage{Page: 1})
	assert.Equal(t, SplitSelecting, s.Phase)
	assert.Equal(t, []int{3, 1}, s.Selection.Pages())
	assert.True(t, CanProduce(s))

	s = mustSplit(t, s, ProduceFailed{Err: errors.New("boom")})
	assert.Equal(t, SplitSelecting, s.Phase)
	assert.Error(t, s.Err)

	s = mustSplit(t, s, Produced{Output: []byte("%PDF")})
	assert.Equal(t, SplitProduced, s.Phase)
	assert.NoError(t, s.Err)
	assert.Equal(t, []byte("%PDF"), s.Output)

	_, err = ReduceSplit(s, TogglePage{Page: 2})
	assert.Error(t, err, "produced is terminal until reload")

	s = mustSplit(t, s, FileLoaded{File: "b.pdf", PageCount: 2})
	assert.Equal(t, SplitLoaded, s.Phase)
	assert.True(t, s.Selection.Empty())
	assert.Nil(t, s.Output)
}

func TestReduceSplitToggleBackToLoaded(t *testing.T) {
	s := mustSplit(t, SplitState{}, FileLoaded{File: "a.pdf", PageCount: 2})
	s = mustSplit(t, s, TogglePage{Page: 2})
	s = mustSplit(t, s, TogglePage{Page: 2})
	assert.Equal(t, SplitLoaded, s.Phase)
	assert.True(t, s.Selection.Empty())
}

func TestReduceSplitRejectedFile(t *testing.T) {
	s := mustSplit(t, SplitState{}, FileLoaded{File: "a.pdf", PageCount: 2})
	s = mustSplit(t, s, TogglePage{Page: 1})
	s = mustSplit(t, s, FileRejected{File: "bad.pdf", Err: errors.New("parse")})
	assert.Equal(t, SplitEmpty, s.Phase)
	assert.Error(t, s.Err)
	assert.Equal(t, 0, s.PageCount())
}

func TestReduceSplitProduceNeedsSelection(t *testing.T) {
	s := mustSplit(t, SplitState{}, FileLoaded{File: "a.pdf", PageCount: 2})
	_, err := ReduceSplit(s, Produced{Output: []byte("x")})
	assert.Error(t, err)
}

func TestSplitSessionEndToEnd(t *testing.T) {
	ss := NewSplitSession()
	_, err := ss.Produce()
	require.Error(t, err)

	st, err := ss.Load("doc.pdf", pdftest.PDF(t, "One", "Two", "Three"))
	require.NoError(t, err)
	assert.Equal(t, 3, st.PageCount())

	_, err = ss.Toggle(3)
	require.NoError(t, err)
	_, err = ss.Toggle(1)
	require.NoError(t, err)

	st, err = ss.Produce()
	require.NoError(t, err)
	assert.Equal(t, SplitProduced, st.Phase)

	pages, err := pdftext.NewExtractor().Pages(st.Output)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0].Text, "Three")
	assert.Contains(t, pages[1].Text, "One")
}

func TestSplitSessionCorruptFile(t *testing.T) {
	ss := NewSplitSession()
	st, err := ss.Load("bad.pdf", []byte("garbage bytes"))
	require.Error(t, err)
	assert.True(t, docerr.IsParse(err))
	assert.Equal(t, SplitEmpty, st.Phase)
	assert.Nil(t, st.Output)
}
