package convert

import (
	"bytes"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/local/doctools/internal/docerr"
)

// Text layout of the Word→PDF conversion, in PDF points with the origin at
// the bottom-left corner.
const (
	PageWidth     = 595.0
	PageHeight    = 842.0
	MarginLeft    = 40.0
	FirstBaseline = 800.0
	LineHeight    = 20.0
	BottomLimit   = 60.0
	FontSize      = 12.0
)

// LinesPerPage is how many lines fit between FirstBaseline and BottomLimit.
var LinesPerPage = int((FirstBaseline-BottomLimit)/LineHeight) + 1

// WordOptions controls Word→PDF.
type WordOptions struct {
	// Paginate starts a new page when one is full. Off by default: a single
	// page is produced and overflowing lines are dropped and counted.
	Paginate bool
}

// WordResult is the produced PDF plus what happened to the text.
type WordResult struct {
	PDF     []byte
	Lines   int // lines extracted from the document
	Written int // lines placed on pages
	Dropped int // lines beyond the single-page capacity
	Pages   int
}

// blockPolicy keeps only the structure that decides line breaks.
var blockPolicy = bluemonday.NewPolicy().AllowElements("p", "h1", "h2", "h3", "h4", "h5", "h6", "br")

// TextLines strips all markup and returns one line per paragraph, heading
// or explicit break, in document order.
func TextLines(markup string) []string {
	clean := blockPolicy.Sanitize(markup)
	z := html.NewTokenizer(strings.NewReader(clean))

	var (
		lines []string
		cur   strings.Builder
	)
	flush := func() {
		lines = append(lines, strings.TrimSpace(strings.ReplaceAll(cur.String(), "\t", "    ")))
		cur.Reset()
	}
	for {
		switch z.Next() {
		case html.ErrorToken:
			if cur.Len() > 0 {
				flush()
			}
			return lines
		case html.TextToken:
			cur.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Br {
				flush()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				flush()
			}
		}
	}
}

// WordToPDF converts a .docx into a plain-text PDF: Helvetica 12pt on
// 595×842pt pages, one line every 20pt from y=800 down to y=60.
func WordToPDF(data []byte, opts WordOptions) (WordResult, error) {
	const op = "word-to-pdf"
	blocks, err := ReadDOCX(data)
	if err != nil {
		return WordResult{}, docerr.Parse(op, err)
	}
	lines := TextLines(Markup(blocks))
	if len(lines) == 0 {
		return WordResult{}, docerr.Unsupported(op, "document has no text")
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: PageWidth, Ht: PageHeight}})
	pdf.SetProducer("", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", FontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	res := WordResult{Lines: len(lines), Pages: 1}
	y := FirstBaseline
	for i, line := range lines {
		if y < BottomLimit {
			if !opts.Paginate {
				res.Dropped = len(lines) - i
				break
			}
			pdf.AddPage()
			res.Pages++
			y = FirstBaseline
		}
		if line != "" {
			pdf.Text(MarginLeft, PageHeight-y, tr(line))
		}
		res.Written++
		y -= LineHeight
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return WordResult{}, docerr.Encoding(op, err)
	}
	res.PDF = buf.Bytes()

	ev := log.Debug()
	if res.Dropped > 0 {
		ev = log.Warn()
	}
	ev.Int("lines", res.Lines).Int("written", res.Written).Int("dropped", res.Dropped).Int("pages", res.Pages).Msg("word laid out")
	return res, nil
}
