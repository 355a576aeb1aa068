// Package assemble builds one output PDF from an ordered list of page
// selections over loaded source documents. Pages are copied as opaque page
// objects; nothing is re-rendered.
package assemble

import (
	"bytes"
	"errors"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/pdfdoc"
	"github.com/local/doctools/internal/selection"
)

// Part contributes pages of one source. Nil Pages means every page in
// source order.
type Part struct {
	Source *pdfdoc.Document
	Pages  []int
}

// Merge concatenates every page of every source in the given order.
func Merge(sources []*pdfdoc.Document) ([]byte, error) {
	if len(sources) < 2 {
		return nil, docerr.Invalid("merge needs at least 2 files, got %d", len(sources))
	}
	parts := make([]Part, len(sources))
	for i, src := range sources {
		parts[i] = Part{Source: src}
	}
	return Assemble("merge", parts)
}

// Split copies the selected pages of one source in selection order.
func Split(src *pdfdoc.Document, sel selection.Selection) ([]byte, error) {
	if sel.Empty() {
		return nil, docerr.Invalid("select at least one page")
	}
	return Assemble("split", []Part{{Source: src, Pages: sel.Pages()}})
}

// Assemble produces the output document: page order is part order, then
// page order within each part. Source metadata is dropped.
func Assemble(op string, parts []Part) ([]byte, error) {
	if len(parts) == 0 {
		return nil, docerr.Invalid("nothing to assemble")
	}

	chunks := make([]io.ReadSeeker, 0, len(parts))
	total := 0
	for _, p := range parts {
		if p.Source == nil {
			return nil, docerr.Invalid("missing source document")
		}
		if p.Pages == nil {
			chunks = append(chunks, p.Source.Reader())
			total += p.Source.PageCount()
			continue
		}
		chunk, err := collect(op, p)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, bytes.NewReader(chunk))
		total += len(p.Pages)
	}

	var merged []byte
	if len(chunks) == 1 {
		data, err := io.ReadAll(chunks[0])
		if err != nil {
			return nil, docerr.Encoding(op, err)
		}
		merged = data
	} else {
		var buf bytes.Buffer
		err := pdfdoc.Guard(func() error {
			return api.MergeRaw(chunks, &buf, false, pdfdoc.Conf())
		})
		if err != nil {
			return nil, docerr.Encoding(op, err)
		}
		merged = buf.Bytes()
	}

	out, err := pdfdoc.Finalize(op, merged)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("op", op).Int("parts", len(parts)).Int("pages", total).Int("bytes", len(out)).Msg("assembled document")
	return out, nil
}

// collect extracts p.Pages from p.Source, in the listed order.
func collect(op string, p Part) ([]byte, error) {
	if len(p.Pages) == 0 {
		return nil, docerr.Invalid("empty page selection for %s", p.Source.Name)
	}
	n := p.Source.PageCount()
	for _, page := range p.Pages {
		if page < 1 || page > n {
			return nil, docerr.Invalid("page %d out of range 1..%d in %s", page, n, p.Source.Name)
		}
	}
	var buf bytes.Buffer
	err := pdfdoc.Guard(func() error {
		return api.Collect(p.Source.Reader(), &buf, selection.Strings(p.Pages), pdfdoc.Conf())
	})
	if err != nil {
		return nil, docerr.Encoding(op, err)
	}
	if buf.Len() == 0 {
		return nil, docerr.Encoding(op, errors.New("empty page collection"))
	}
	return buf.Bytes(), nil
}
