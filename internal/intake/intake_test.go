package intake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/doctools/internal/filetype"
)

func TestOpenAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, n := range []string{"b.pdf", "a.pdf"} {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4\n"), 0o644))
		paths = append(paths, p)
	}
	files, err := OpenAll(paths)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "b.pdf", files[0].Name)
	assert.Equal(t, "a.pdf", files[1].Name)
	assert.Equal(t, filetype.KindPDF, files[0].Info.Kind)
}

func TestReadLimit(t *testing.T) {
	_, err := Read("big.pdf", strings.NewReader("0123456789"), 4)
	require.Error(t, err)

	f, err := Read("small.pdf", strings.NewReader("0123"), 4)
	require.NoError(t, err)
	assert.Len(t, f.Data, 4)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}
