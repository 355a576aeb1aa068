// Package pdfdoc wraps pdfcpu for loading, inspecting and re-serializing PDFs.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/docerr"
)

func init() {
	// pdfcpu would otherwise create a config dir under the user's home.
	api.DisableConfigDir()
}

// Document is a loaded, validated PDF. It is owned by one operation.
type Document struct {
	Name string
	raw  []byte
	ctx  *model.Context
}

// Size is a page size in PDF points.
type Size struct {
	Width  float64
	Height float64
}

// Conf returns a fresh pdfcpu configuration; pdfcpu commands mutate it.
func Conf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Load parses and validates data. Any failure is a ParseError.
func Load(name string, data []byte) (*Document, error) {
	op := "load " + name
	if len(data) == 0 {
		return nil, docerr.Parse(op, errors.New("empty file"))
	}
	var ctx *model.Context
	err := Guard(func() error {
		var err error
		ctx, err = api.ReadValidateAndOptimize(bytes.NewReader(data), Conf())
		return err
	})
	if err != nil {
		return nil, docerr.Parse(op, err)
	}
	if ctx.PageCount < 1 {
		return nil, docerr.Parse(op, errors.New("document has no pages"))
	}
	log.Debug().Str("file", name).Int("pages", ctx.PageCount).Int("bytes", len(data)).Msg("pdf loaded")
	return &Document{Name: name, raw: data, ctx: ctx}, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.ctx.PageCount }

// Bytes returns the source bytes the document was loaded from.
func (d *Document) Bytes() []byte { return d.raw }

// Reader returns a fresh reader over the source bytes.
func (d *Document) Reader() io.ReadSeeker { return bytes.NewReader(d.raw) }

// PageSizes returns the visible size of every page, in page order.
func (d *Document) PageSizes() ([]Size, error) {
	dims, err := d.ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("page dims %s: %w", d.Name, err)
	}
	out := make([]Size, len(dims))
	for i, dim := range dims {
		out[i] = Size{Width: dim.Width, Height: dim.Height}
	}
	return out, nil
}

// Info returns the document information dictionary as plain strings.
func (d *Document) Info() map[string]string {
	return infoOf(d.ctx)
}

func infoOf(ctx *model.Context) map[string]string {
	out := map[string]string{}
	if ctx.Info == nil {
		return out
	}
	dict, err := ctx.DereferenceDict(*ctx.Info)
	if err != nil || dict == nil {
		return out
	}
	for k, v := range dict {
		switch s := v.(type) {
		case types.StringLiteral:
			out[k] = s.Value()
		case types.HexLiteral:
			if b, err := s.Bytes(); err == nil {
				out[k] = string(b)
			}
		default:
			if v != nil {
				out[k] = v.String()
			}
		}
	}
	return out
}

// Guard runs fn and converts a pdfcpu panic on malformed input into an error.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu: %v", r)
		}
	}()
	return fn()
}
