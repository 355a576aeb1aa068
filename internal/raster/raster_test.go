package raster

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/pdftest"
)

func TestRenderAllInOrder(t *testing.T) {
	data := pdftest.SizedPDF(t, gofpdf.SizeType{Wd: 200, Ht: 100}, gofpdf.SizeType{Wd: 100, Ht: 300})

	images, err := RenderAll(data, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, images, 2)

	assert.Equal(t, 1, images[0].Page)
	assert.Equal(t, 2, images[1].Page)
	// 1.5 × 72 dpi: 200×100 pt becomes 300×150 px
	assert.InDelta(t, 300, images[0].Width, 2)
	assert.InDelta(t, 150, images[0].Height, 2)
	assert.InDelta(t, 150, images[1].Width, 2)
	assert.InDelta(t, 450, images[1].Height, 2)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(images[0].Data))
	require.NoError(t, err)
	assert.Equal(t, images[0].Width, cfg.Width)
}

func TestSequenceNotRestartable(t *testing.T) {
	seq, err := Open(pdftest.PDF(t, "a"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, seq.PageCount())

	n := 0
	for _, err := range seq.All() {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 1, n)

	for _, err := range seq.All() {
		assert.ErrorIs(t, err, ErrConsumed)
	}
}

func TestSequenceEarlyBreak(t *testing.T) {
	seq, err := Open(pdftest.PDF(t, "a", "b", "c"), Options{})
	require.NoError(t, err)
	for img := range seq.All() {
		assert.Equal(t, 1, img.Page)
		break
	}
	assert.NoError(t, seq.Close())
}

func TestGrayMode(t *testing.T) {
	images, err := RenderAll(pdftest.PDF(t, "gray"), Options{Scale: 0.5, Quality: 50, Color: ColorGray})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.NotEmpty(t, images[0].Data)
}

func TestOpenRejectsNonPDF(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":   nil,
		"png":     pdftest.PNG(t, 4, 4),
		"garbage": []byte("hello world"),
	} {
		_, err := Open(data, DefaultOptions())
		require.Error(t, err, name)
		assert.True(t, docerr.IsParse(err), name)
	}
}

func TestOptionsNormalized(t *testing.T) {
	o := Options{}.normalized()
	assert.Equal(t, 1.5, o.Scale)
	assert.Equal(t, 90, o.Quality)
	assert.Equal(t, ColorRGB, o.Color)
	assert.Equal(t, 108.0, o.DPI())
}
