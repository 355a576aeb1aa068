// Package toolkit is the operation boundary of the seven document tools:
// it runs one tool over in-memory inputs, turns every failure into a
// per-tool user message and records logs and metrics.
package toolkit

import (
	"path/filepath"
	"strings"
)

// Tool names one of the document tools.
type Tool string

const (
	Merge     Tool = "merge"
	Split     Tool = "split"
	Compress  Tool = "compress"
	WordToPDF Tool = "word-to-pdf"
	PDFToWord Tool = "pdf-to-word"
	PDFToJPG  Tool = "pdf-to-jpg"
	JPGToPDF  Tool = "jpg-to-pdf"
)

// Spec describes a tool to the surfaces.
type Spec struct {
	Tool     Tool     `json:"tool"`
	Title    string   `json:"title"`
	Accept   []string `json:"accept"`
	Multiple bool     `json:"multiple"`
	MinFiles int      `json:"min_files"`
	// Message is shown when the operation fails for a reason other than
	// invalid input.
	Message string `json:"-"`
}

var pdfOnly = []string{".pdf", "application/pdf"}

var specs = []Spec{
	{Tool: Merge, Title: "Merge PDF", Accept: pdfOnly, Multiple: true, MinFiles: 2,
		Message: "Could not merge PDF files. Please ensure all files are valid PDFs."},
	{Tool: Split, Title: "Split PDF", Accept: pdfOnly, MinFiles: 1,
		Message: "Could not split PDF."},
	{Tool: Compress, Title: "Compress PDF", Accept: pdfOnly, MinFiles: 1,
		Message: "Could not compress PDF."},
	{Tool: WordToPDF, Title: "Word to PDF", Accept: []string{".docx", ".doc"}, MinFiles: 1,
		Message: "Unable to convert DOCX to PDF. Only .docx files with simple formatting supported."},
	{Tool: PDFToWord, Title: "PDF to Word", Accept: pdfOnly, MinFiles: 1,
		Message: "Unable to convert PDF to Word. This tool currently supports only text-based PDFs, not scanned images."},
	{Tool: PDFToJPG, Title: "PDF to JPG", Accept: pdfOnly, MinFiles: 1,
		Message: "Could not process this PDF."},
	{Tool: JPGToPDF, Title: "JPG to PDF", Accept: []string{".jpg", ".jpeg", ".png", "image/jpeg", "image/png"}, Multiple: true, MinFiles: 1,
		Message: "Could not create PDF. Ensure all files are valid JPG or PNG."},
}

// Messages that replace Spec.Message for specific failures.
const (
	msgSplitLoad       = "Not a valid PDF."
	msgPDFToWordNoText = "PDF text extraction is limited in free browser-only tools. For best results, use PDFs generated from text, not scans."
	msgBusy            = "This tool is still working on the previous request."
)

// Specs returns every tool in dashboard order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Lookup finds a tool by name.
func Lookup(name string) (Spec, bool) {
	for _, s := range specs {
		if string(s.Tool) == strings.ToLower(name) {
			return s, true
		}
	}
	return Spec{}, false
}

// SuggestName returns the download filename for tool's output, derived
// from the first input's name where the tool keeps it.
func SuggestName(tool Tool, input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if input == "" || base == "" || base == "." {
		base = ""
	}
	switch tool {
	case Merge:
		return "merged.pdf"
	case Split:
		return "split.pdf"
	case JPGToPDF:
		return "images.pdf"
	case PDFToJPG:
		return "pdf-images.zip"
	case Compress:
		if base == "" {
			return "compressed.pdf"
		}
		return base + "-compressed.pdf"
	case WordToPDF:
		if base == "" {
			return "converted.pdf"
		}
		return base + ".pdf"
	case PDFToWord:
		if base == "" {
			return "converted.docx"
		}
		return base + ".docx"
	}
	return "output"
}
