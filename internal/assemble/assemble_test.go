package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/pdfdoc"
	"github.com/local/doctools/internal/pdftest"
	"github.com/local/doctools/internal/pdftext"
	"github.com/local/doctools/internal/selection"
)

func load(t *testing.T, name string, data []byte) *pdfdoc.Document {
	t.Helper()
	doc, err := pdfdoc.Load(name, data)
	require.NoError(t, err)
	return doc
}

func pageTexts(t *testing.T, data []byte) []string {
	t.Helper()
	pages, err := pdftext.NewExtractor().Pages(data)
	require.NoError(t, err)
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Text
	}
	return out
}

func TestMergeConcatenatesInSourceOrder(t *testing.T) {
	a := load(t, "a.pdf", pdftest.PDF(t, "A1", "A2"))
	b := load(t, "b.pdf", pdftest.PDF(t, "B1"))
	c := load(t, "c.pdf", pdftest.PDF(t, "C1", "C2", "C3"))

	out, err := Merge([]*pdfdoc.Document{b, a, c})
	require.NoError(t, err)

	merged := load(t, "merged.pdf", out)
	assert.Equal(t, a.PageCount()+b.PageCount()+c.PageCount(), merged.PageCount())

	texts := pageTexts(t, out)
	require.Len(t, texts, 6)
	for i, want := range []string{"B1", "A1", "A2", "C1", "C2", "C3"} {
		assert.Contains(t, texts[i], want, "page %d", i+1)
	}
}

func TestMergeTwoSinglePages(t *testing.T) {
	a := load(t, "a.pdf", pdftest.PDF(t, "Apple"))
	b := load(t, "b.pdf", pdftest.PDF(t, "Banana"))

	out, err := Merge([]*pdfdoc.Document{a, b})
	require.NoError(t, err)
	texts := pageTexts(t, out)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Apple")
	assert.Contains(t, texts[1], "Banana")
}

func TestMergeNeedsTwoFiles(t *testing.T) {
	a := load(t, "a.pdf", pdftest.PDF(t, "A"))
	_, err := Merge([]*pdfdoc.Document{a})
	require.Error(t, err)
	assert.True(t, docerr.IsValidation(err))
}

func TestSplitUsesSelectionOrder(t *testing.T) {
	src := load(t, "src.pdf", pdftest.PDF(t, "One", "Two", "Three", "Four"))
	sel, err := selection.FromPages(src.PageCount(), []int{3, 1})
	require.NoError(t, err)

	out, err := Split(src, sel)
	require.NoError(t, err)
	texts := pageTexts(t, out)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Three")
	assert.Contains(t, texts[1], "One")
}

func TestSplitEmptySelection(t *testing.T) {
	src := load(t, "src.pdf", pdftest.PDF(t, "One"))
	_, err := Split(src, selection.New(1))
	require.Error(t, err)
	assert.True(t, docerr.IsValidation(err))
}

func TestAssembleMixedParts(t *testing.T) {
	a := load(t, "a.pdf", pdftest.PDF(t, "A1", "A2", "A3"))
	b := load(t, "b.pdf", pdftest.PDF(t, "B1", "B2"))

	out, err := Assemble("organize", []Part{
		{Source: b, Pages: []int{2}},
		{Source: a, Pages: []int{3, 1}},
		{Source: b},
	})
	require.NoError(t, err)
	texts := pageTexts(t, out)
	require.Len(t, texts, 5)
	for i, want := range []string{"B2", "A3", "A1", "B1", "B2"} {
		assert.Contains(t, texts[i], want, "page %d", i+1)
	}
}

func TestAssembleRejectsOutOfRangePage(t *testing.T) {
	a := load(t, "a.pdf", pdftest.PDF(t, "A1"))
	_, err := Assemble("split", []Part{{Source: a, Pages: []int{2}}})
	require.Error(t, err)
	assert.True(t, docerr.IsValidation(err))
}

func TestOutputDropsSourceMetadata(t *testing.T) {
	info := pdftest.Info{
		Title:    "Quarterly Report",
		Author:   "Jordan Example",
		Subject:  "Finance",
		Keywords: "secret, internal",
		Creator:  "WordProcessor 9",
		Producer: "SourceProducer 1.0",
	}
	a := load(t, "a.pdf", pdftest.PDFWithInfo(t, info, "A"))
	require.Equal(t, "Quarterly Report", a.Info()["Title"])
	b := load(t, "b.pdf", pdftest.PDFWithInfo(t, info, "B"))

	merged, err := Merge([]*pdfdoc.Document{a, b})
	require.NoError(t, err)
	sel, err := selection.FromPages(1, []int{1})
	require.NoError(t, err)
	split, err := Split(a, sel)
	require.NoError(t, err)

	for name, out := range map[string][]byte{"merge": merged, "split": split} {
		got := load(t, name, out).Info()
		for _, key := range []string{"Title", "Author", "Subject", "Keywords", "Creator"} {
			assert.Empty(t, got[key], "%s: %s", name, key)
		}
		assert.NotContains(t, got["Producer"], "SourceProducer", name)
		if p := got["Producer"]; p != "" {
			assert.True(t, strings.HasPrefix(p, "pdfcpu"), "%s: producer %q", name, p)
		}
	}
}

func TestCorruptSourceIsParseError(t *testing.T) {
	_, err := pdfdoc.Load("bad.pdf", []byte("this is not a pdf at all"))
	require.Error(t, err)
	assert.True(t, docerr.IsParse(err))
}
