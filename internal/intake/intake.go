// Package intake loads user-selected files into memory and tags them with a
// sniffed type. The accept filter of a tool is advisory: parsing decides.
package intake

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/filetype"
)

// File is one in-memory input.
type File struct {
	Name string
	Data []byte
	Info *filetype.FileTypeInfo
}

var detector = filetype.New()

// FromBytes wraps already-read bytes.
func FromBytes(name string, data []byte) File {
	return File{Name: filepath.Base(name), Data: data, Info: detector.Detect(name, data)}
}

// Read reads a file of at most limit bytes (0 means unlimited) from r.
func Read(name string, r io.Reader, limit int64) (File, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return File{}, fmt.Errorf("read %s: file exceeds %d bytes", name, limit)
	}
	return FromBytes(name, data), nil
}

// Open reads a local file.
func Open(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(path, f, 0)
}

// OpenAll reads several local files, keeping picker order.
func OpenAll(paths []string) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		f, err := Open(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// Check logs files that fall outside the accept filter. It never rejects.
func Check(tool string, accept []string, files []File) {
	for _, f := range files {
		if !filetype.Accepts(accept, f.Name, f.Info) {
			log.Warn().Str("tool", tool).Str("file", f.Name).Str("mime", f.Info.MIMEType).
				Strs("accept", accept).Msg("file outside accepted types, will try to parse anyway")
		}
	}
}
