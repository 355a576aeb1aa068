// Package archive bundles rendered pages into a single zip download.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/raster"
)

// DefaultName is the archive's suggested filename.
const DefaultName = "pdf-images.zip"

// EntryName is the zip entry for a 1-based page number.
func EntryName(page int) string { return fmt.Sprintf("page-%d.jpg", page) }

// Pack writes one entry per image, named after its page. JPEG data is
// stored rather than deflated.
func Pack(images []raster.Image) ([]byte, error) {
	const op = "pdf-to-jpg"
	if len(images) == 0 {
		return nil, docerr.Encoding(op, errors.New("no images to package"))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	now := time.Now()
	for _, img := range images {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     EntryName(img.Page),
			Method:   zip.Store,
			Modified: now,
		})
		if err != nil {
			return nil, docerr.Encoding(op, fmt.Errorf("create %s: %w", EntryName(img.Page), err))
		}
		if _, err := w.Write(img.Data); err != nil {
			return nil, docerr.Encoding(op, fmt.Errorf("write %s: %w", EntryName(img.Page), err))
		}
	}
	if err := zw.Close(); err != nil {
		return nil, docerr.Encoding(op, err)
	}
	return buf.Bytes(), nil
}
