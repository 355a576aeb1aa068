// Package pdftext extracts per-page text from PDFs using the embedded MuPDF
// engine (go-fitz).
package pdftext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/docerr"
)

// Doc abstracts a PDF document for text extraction.
type Doc interface {
	NumPage() int
	Text(i int) (string, error)
	Close() error
}

// Opener abstracts opening PDF bytes into a Doc.
type Opener interface {
	Open(data []byte) (Doc, error)
}

// defaultOpener is provided in open_fitz.go using go-fitz.
var defaultOpener Opener

// setDefaultOpener allows swapping the default opener, useful for tests or alternate backends.
func setDefaultOpener(o Opener) { defaultOpener = o }

// Page is the cleaned text of one page. Empty means nothing extractable.
type Page struct {
	Number int
	Text   string
}

// Extractor pulls cleaned text out of every page.
type Extractor struct {
	opener Opener
}

// NewExtractor returns an extractor using the default go-fitz opener.
func NewExtractor() *Extractor {
	return &Extractor{opener: defaultOpener}
}

// PageCount opens data and returns its page count.
func (e *Extractor) PageCount(data []byte) (int, error) {
	doc, err := e.open(data)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// Pages extracts every page in order. A page whose extraction fails yields
// empty text; only an unreadable document is an error.
func (e *Extractor) Pages(data []byte) ([]Page, error) {
	doc, err := e.open(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	n := doc.NumPage()
	pages := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		raw, err := doc.Text(i)
		if err != nil {
			log.Warn().Err(err).Int("page", i+1).Msg("failed to extract text from page")
			raw = ""
		}
		cleaned := cleanText(raw, i+1)
		log.Debug().Int("page", i+1).Int("raw_chars", len(raw)).Int("cleaned_chars", len(cleaned)).Msg("extracted page text")
		pages = append(pages, Page{Number: i + 1, Text: cleaned})
	}
	return pages, nil
}

func (e *Extractor) open(data []byte) (Doc, error) {
	if e.opener == nil {
		return nil, errors.New("no PDF opener configured")
	}
	doc, err := e.opener.Open(data)
	if err != nil {
		return nil, docerr.Parse("open pdf", err)
	}
	if doc.NumPage() < 1 {
		doc.Close()
		return nil, docerr.Parse("open pdf", errors.New("document has no pages"))
	}
	return doc, nil
}

// cleanText drops page numbers, empty lines and symbol-only noise, then
// re-joins lines broken mid-sentence.
func cleanText(text string, pageNum int) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isPageNumber(trimmed, pageNum) || isNoise(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.TrimSpace(fixBrokenLines(kept))
}

func isPageNumber(line string, pageNum int) bool {
	if line == fmt.Sprintf("%d", pageNum) {
		return true
	}
	for _, pattern := range []string{
		fmt.Sprintf("Page %d", pageNum),
		fmt.Sprintf("- %d -", pageNum),
		fmt.Sprintf("[%d]", pageNum),
	} {
		if strings.EqualFold(line, pattern) {
			return true
		}
	}
	return false
}

func isNoise(line string) bool {
	for _, r := range line {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r > 127 {
			return false
		}
	}
	return true
}

func fixBrokenLines(lines []string) string {
	var fixed []string
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if i < len(lines)-1 {
			next := lines[i+1]
			last := line[len(line)-1]
			sentenceEnd := last == '.' || last == '!' || last == '?' || last == ':' || last == ';'
			if !sentenceEnd && next[0] >= 'a' && next[0] <= 'z' && !strings.HasSuffix(line, "-") {
				fixed = append(fixed, line+" "+next)
				i++
				continue
			}
		}
		fixed = append(fixed, line)
	}
	return strings.Join(fixed, "\n")
}
