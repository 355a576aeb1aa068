package convert

import (
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/pdftest"
)

func TestPDFToWord(t *testing.T) {
	data := pdftest.PDF(t, "Alpha", "Bravo")

	doc, err := PDFToWord(data)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Pages)
	assert.Zero(t, doc.EmptyPages)

	blocks, err := ReadDOCX(doc.DOCX)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	assert.Equal(t, Block{Level: 1, Text: "Page 1"}, blocks[0])
	assert.Contains(t, blocks[1].Text, "Alpha")
	assert.Equal(t, Block{Level: 1, Text: "Page 2"}, blocks[2])
	assert.Contains(t, blocks[3].Text, "Bravo")
}

func TestPDFToWordPlaceholderForBlankPage(t *testing.T) {
	data := pdftest.PDF(t, "Alpha", "")

	doc, err := PDFToWord(data)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.EmptyPages)

	blocks, err := ReadDOCX(doc.DOCX)
	require.NoError(t, err)
	assert.Equal(t, PlaceholderText, blocks[len(blocks)-1].Text)
}

func TestPDFToWordNoTextAnywhere(t *testing.T) {
	data := pdftest.SizedPDF(t, gofpdf.SizeType{Wd: 595, Ht: 842}, gofpdf.SizeType{Wd: 595, Ht: 842})

	_, err := PDFToWord(data)
	require.Error(t, err)
	assert.True(t, docerr.IsUnsupported(err))
}

func TestPDFToWordCorrupt(t *testing.T) {
	_, err := PDFToWord([]byte("garbage"))
	require.Error(t, err)
	assert.True(t, docerr.IsParse(err))
}

func TestSplitParagraphs(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, splitParagraphs("a\n\n  b c  \n"))
}
