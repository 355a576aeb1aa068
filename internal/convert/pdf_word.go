package convert

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/pdftext"
)

// PlaceholderText stands in for a page that yielded no text.
const PlaceholderText = "(No extractable text on this page)"

// WordDoc is the result of PDF→Word.
type WordDoc struct {
	DOCX       []byte
	Pages      int
	EmptyPages int
}

// PDFToWord writes one "Page n" heading per page followed by the page's
// text, one paragraph per line. Pages without text get a placeholder
// paragraph. When no page has text at all the conversion fails with
// UnsupportedContent rather than emit a document of placeholders.
func PDFToWord(data []byte) (WordDoc, error) {
	const op = "pdf-to-word"
	pages, err := pdftext.NewExtractor().Pages(data)
	if err != nil {
		return WordDoc{}, err
	}

	res := WordDoc{Pages: len(pages)}
	var blocks []Block
	for _, p := range pages {
		blocks = append(blocks, Block{Level: 1, Text: fmt.Sprintf("Page %d", p.Number)})
		if p.Text == "" {
			res.EmptyPages++
			blocks = append(blocks, Block{Text: PlaceholderText})
			continue
		}
		for _, para := range splitParagraphs(p.Text) {
			blocks = append(blocks, Block{Text: para})
		}
	}
	if res.EmptyPages == res.Pages {
		return WordDoc{}, docerr.Unsupported(op, "no extractable text in %d page(s)", res.Pages)
	}

	docx, err := WriteDOCX(blocks)
	if err != nil {
		return WordDoc{}, docerr.Encoding(op, err)
	}
	res.DOCX = docx
	log.Debug().Int("pages", res.Pages).Int("empty_pages", res.EmptyPages).Int("bytes", len(docx)).Msg("pdf text written as docx")
	return res, nil
}

func splitParagraphs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
