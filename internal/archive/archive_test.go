package archive

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/pdftest"
	"github.com/local/doctools/internal/raster"
)

func TestPackNamesEntriesByPage(t *testing.T) {
	images, err := raster.RenderAll(pdftest.PDF(t, "one", "two", "three"), raster.Options{Scale: 0.5})
	require.NoError(t, err)

	data, err := Pack(images)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)
	for i, f := range zr.File {
		assert.Equal(t, EntryName(i+1), f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, images[i].Data, body)
	}
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "page-1.jpg", EntryName(1))
	assert.Equal(t, "page-12.jpg", EntryName(12))
}

func TestPackEmpty(t *testing.T) {
	_, err := Pack(nil)
	require.Error(t, err)
	assert.Equal(t, docerr.KindEncoding, docerr.KindOf(err))
}
