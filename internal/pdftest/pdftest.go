// Package pdftest builds small documents and images for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/klauspost/compress/zip"
)

// Info is optional document metadata written into a fixture PDF.
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
}

var fixedDate = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// PDF returns an A4 PDF with one page per text; each page shows its text.
func PDF(t testing.TB, texts ...string) []byte {
	t.Helper()
	return PDFWithInfo(t, Info{}, texts...)
}

// PDFWithInfo is like PDF but also writes the information dictionary.
func PDFWithInfo(t testing.TB, info Info, texts ...string) []byte {
	t.Helper()
	sizes := make([]gofpdf.SizeType, len(texts))
	for i := range sizes {
		sizes[i] = gofpdf.SizeType{Wd: 595, Ht: 842}
	}
	return build(t, info, sizes, texts)
}

// SizedPDF returns a PDF whose pages have the given sizes in points.
func SizedPDF(t testing.TB, sizes ...gofpdf.SizeType) []byte {
	t.Helper()
	return build(t, Info{}, sizes, make([]string, len(sizes)))
}

func build(t testing.TB, info Info, sizes []gofpdf.SizeType, texts []string) []byte {
	t.Helper()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 595, Ht: 842}})
	pdf.SetCreationDate(fixedDate)
	pdf.SetModificationDate(fixedDate)
	pdf.SetProducer(info.Producer, false)
	if info.Title != "" {
		pdf.SetTitle(info.Title, false)
	}
	if info.Author != "" {
		pdf.SetAuthor(info.Author, false)
	}
	if info.Subject != "" {
		pdf.SetSubject(info.Subject, false)
	}
	if info.Keywords != "" {
		pdf.SetKeywords(info.Keywords, false)
	}
	if info.Creator != "" {
		pdf.SetCreator(info.Creator, false)
	}
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 24)
	for i, size := range sizes {
		// "P" keeps Wd as width; "L" would swap the two.
		pdf.AddPageFormat("P", size)
		if texts[i] != "" {
			pdf.Text(40, 80, texts[i])
		}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("build fixture pdf: %v", err)
	}
	return buf.Bytes()
}

// MinimalPDF returns a hand-laid single blank page with info written
// directly into the trailer's Info dictionary. It is smaller than anything
// pdfcpu writes, so a rewrite of it never shrinks.
func MinimalPDF(t testing.TB, info Info) []byte {
	t.Helper()
	var dict strings.Builder
	for _, kv := range [][2]string{
		{"Title", info.Title}, {"Author", info.Author}, {"Subject", info.Subject},
		{"Keywords", info.Keywords}, {"Creator", info.Creator}, {"Producer", info.Producer},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&dict, "/%s (%s)", kv[0], pdfString.Replace(kv[1]))
		}
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>",
		"<< " + dict.String() + " >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

var pdfString = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)

func fill(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

// PNG returns a w×h PNG.
func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, fill(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// JPEG returns a w×h JPEG.
func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, fill(w, h), &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// GIF returns a w×h GIF, a format the image tools refuse.
func GIF(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, fill(w, h), nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

// DOCX returns a minimal Word document. Entries starting with "#" become
// Heading1 paragraphs; "\n" inside an entry becomes a line break.
func DOCX(t testing.TB, paragraphs ...string) []byte {
	t.Helper()
	var body bytes.Buffer
	for _, p := range paragraphs {
		body.WriteString("<w:p>")
		if len(p) > 0 && p[0] == '#' {
			body.WriteString(`<w:pPr><w:pStyle w:val="Heading1"/></w:pPr>`)
			p = p[1:]
		}
		body.WriteString("<w:r>")
		for i, line := range bytes.Split([]byte(p), []byte("\n")) {
			if i > 0 {
				body.WriteString("<w:br/>")
			}
			body.WriteString(`<w:t xml:space="preserve">`)
			body.WriteString(escape(string(line)))
			body.WriteString("</w:t>")
		}
		body.WriteString("</w:r></w:p>")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, body string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`},
		{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body.String() + `</w:body></w:document>`},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("docx entry %s: %v", f.name, err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			t.Fatalf("docx entry %s: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close docx: %v", err)
	}
	return buf.Bytes()
}

func escape(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
