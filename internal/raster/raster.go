// Package raster renders PDF pages to JPEG images with the embedded MuPDF
// engine (go-fitz).
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"iter"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/docerr"
)

const op = "pdf-to-jpg"

// ColorMode defines the color mode for rendering
type ColorMode string

const (
	ColorRGB  ColorMode = "rgb"
	ColorGray ColorMode = "gray"
)

// Options controls rendering. Scale multiplies the 72 dpi base resolution.
type Options struct {
	Scale   float64
	Quality int
	Color   ColorMode
}

// DefaultOptions renders at 1.5× with JPEG quality 90.
func DefaultOptions() Options {
	return Options{Scale: 1.5, Quality: 90, Color: ColorRGB}
}

// DPI is the render resolution.
func (o Options) DPI() float64 { return 72 * o.Scale }

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Scale <= 0 {
		o.Scale = d.Scale
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = d.Quality
	}
	if o.Color == "" {
		o.Color = d.Color
	}
	return o
}

// Image is one rendered page. Page is 1-based.
type Image struct {
	Page   int
	Data   []byte
	Width  int
	Height int
}

// ErrConsumed is returned when a Sequence is iterated a second time.
var ErrConsumed = errors.New("page sequence already consumed")

// Sequence yields the pages of one document in order. It holds a single
// MuPDF handle, so pages are rendered one at a time.
type Sequence struct {
	mu    sync.Mutex
	doc   *fitz.Document
	opts  Options
	pages int
	used  bool
}

// Open validates data and prepares a Sequence. An unreadable document fails
// here, before any page is rendered.
func Open(data []byte, opts Options) (*Sequence, error) {
	if len(data) == 0 {
		return nil, docerr.Parse(op, errors.New("empty input"))
	}
	if mt := mimetype.Detect(data); !mt.Is("application/pdf") {
		return nil, docerr.Parse(op, fmt.Errorf("not a PDF (detected %s)", mt.String()))
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, docerr.Parse(op, fmt.Errorf("failed to open PDF: %w", err))
	}
	n := doc.NumPage()
	if n < 1 {
		doc.Close()
		return nil, docerr.Parse(op, errors.New("document has no pages"))
	}
	return &Sequence{doc: doc, opts: opts.normalized(), pages: n}, nil
}

// PageCount returns the number of pages the sequence will yield.
func (s *Sequence) PageCount() int { return s.pages }

// All yields every page in order. Iteration stops at the first error. The
// document handle is released when iteration ends; a second call yields
// ErrConsumed.
func (s *Sequence) All() iter.Seq2[Image, error] {
	return func(yield func(Image, error) bool) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.used {
			yield(Image{}, ErrConsumed)
			return
		}
		s.used = true
		defer s.release()

		for i := 0; i < s.pages; i++ {
			img, err := s.render(i + 1)
			if !yield(img, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the document if All was never run to completion.
func (s *Sequence) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used = true
	s.release()
	return nil
}

func (s *Sequence) release() {
	if s.doc != nil {
		_ = s.doc.Close()
		s.doc = nil
	}
}

// render renders a page as JPEG (go-fitz uses 0-based indexing).
func (s *Sequence) render(pageNum int) (Image, error) {
	img, err := s.doc.ImageDPI(pageNum-1, s.opts.DPI())
	if err != nil {
		return Image{}, docerr.Parse(op, fmt.Errorf("failed to render page %d: %w", pageNum, err))
	}
	bounds := img.Bounds()

	var final image.Image = img
	if s.opts.Color == ColorGray {
		gray := image.NewGray(bounds)
		draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
		final = gray
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, final, &jpeg.Options{Quality: s.opts.Quality}); err != nil {
		return Image{}, docerr.Encoding(op, fmt.Errorf("failed to encode page %d: %w", pageNum, err))
	}

	log.Debug().
		Int("page", pageNum).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Str("color", string(s.opts.Color)).
		Int("jpeg_size", buf.Len()).
		Msg("rendered page")
	return Image{Page: pageNum, Data: buf.Bytes(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

// RenderAll opens data and collects every page.
func RenderAll(data []byte, opts Options) ([]Image, error) {
	seq, err := Open(data, opts)
	if err != nil {
		return nil, err
	}
	defer seq.Close()

	images := make([]Image, 0, seq.PageCount())
	for img, err := range seq.All() {
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}
