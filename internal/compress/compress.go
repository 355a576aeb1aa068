// Package compress makes a best-effort attempt to shrink a PDF.
package compress

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/pdfdoc"
	"github.com/local/doctools/internal/raster"
)

const op = "compress"

// Mode selects the compression pipeline.
type Mode string

const (
	// ModeMetadata copies pages as-is, strips metadata and lets pdfcpu drop
	// unused objects. Text stays selectable.
	ModeMetadata Mode = "metadata"
	// ModeRasterize renders every page to JPEG and rebuilds the document
	// from the images. Text is no longer selectable.
	ModeRasterize Mode = "rasterize"
)

// ParseMode maps a config or flag value to a Mode. Empty means ModeMetadata.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeMetadata:
		return ModeMetadata, nil
	case ModeRasterize:
		return ModeRasterize, nil
	}
	return "", docerr.Invalid("unknown compression mode %q", s)
}

// Options for Compress. DPI and Quality apply to ModeRasterize only.
type Options struct {
	Mode    Mode
	DPI     int
	Quality int
}

// DefaultOptions is metadata mode with 96 dpi / quality 60 for rasterizing.
func DefaultOptions() Options {
	return Options{Mode: ModeMetadata, DPI: 96, Quality: 60}
}

// Result of a compression. Mode is the pipeline that produced Data, which
// is ModeMetadata when a rasterized result was not smaller.
type Result struct {
	Data        []byte
	Mode        Mode
	Reduced     bool
	InputBytes  int
	OutputBytes int
}

// Compress shrinks data. The output never carries the source metadata:
// metadata mode always returns the stripped rewrite, and a rasterized
// result that is not smaller is replaced by that rewrite.
func Compress(data []byte, opts Options) (Result, error) {
	if opts.Mode == "" {
		opts.Mode = ModeMetadata
	}
	doc, err := pdfdoc.Load("input.pdf", data)
	if err != nil {
		return Result{}, err
	}

	mode := opts.Mode
	var out []byte
	switch mode {
	case ModeMetadata:
		out, err = doc.Rewrite(op)
	case ModeRasterize:
		out, err = rasterize(doc, opts)
		if err == nil && len(out) >= len(data) {
			log.Debug().Int("bytes_in", len(data)).Int("bytes_out", len(out)).Msg("rasterized output not smaller, using metadata rewrite")
			mode = ModeMetadata
			out, err = doc.Rewrite(op)
		}
	default:
		return Result{}, docerr.Invalid("unknown compression mode %q", opts.Mode)
	}
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Data:        out,
		Mode:        mode,
		Reduced:     len(out) < len(data),
		InputBytes:  len(data),
		OutputBytes: len(out),
	}
	log.Info().
		Str("mode", string(mode)).
		Int("bytes_in", res.InputBytes).
		Int("bytes_out", res.OutputBytes).
		Bool("reduced", res.Reduced).
		Msg("compression finished")
	return res, nil
}

// rasterize renders each page and embeds the JPEG on a page of the
// original size in points.
func rasterize(doc *pdfdoc.Document, opts Options) ([]byte, error) {
	d := DefaultOptions()
	if opts.DPI <= 0 {
		opts.DPI = d.DPI
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = d.Quality
	}
	sizes, err := doc.PageSizes()
	if err != nil {
		return nil, docerr.Parse(op, err)
	}

	seq, err := raster.Open(doc.Bytes(), raster.Options{Scale: float64(opts.DPI) / 72, Quality: opts.Quality})
	if err != nil {
		return nil, err
	}
	defer seq.Close()

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 595, Ht: 842}})
	pdf.SetProducer("", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	opt := gofpdf.ImageOptions{ImageType: "jpg"}

	for img, err := range seq.All() {
		if err != nil {
			return nil, err
		}
		size := pdfdoc.Size{Width: float64(img.Width) * 72 / float64(opts.DPI), Height: float64(img.Height) * 72 / float64(opts.DPI)}
		if img.Page <= len(sizes) {
			size = sizes[img.Page-1]
		}
		name := fmt.Sprintf("page-%d", img.Page)
		pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(img.Data))
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: size.Width, Ht: size.Height})
		pdf.ImageOptions(name, 0, 0, size.Width, size.Height, false, opt, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, docerr.Encoding(op, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, docerr.Encoding(op, err)
	}
	return buf.Bytes(), nil
}
