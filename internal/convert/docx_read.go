package convert

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Block is one paragraph of a Word document. Level is 1..6 for headings and
// 0 for body text. Text may contain "\n" from explicit line breaks.
type Block struct {
	Level int
	Text  string
}

// ReadDOCX extracts the paragraphs of word/document.xml. Tables are read as
// their cell paragraphs; images and styling are ignored.
func ReadDOCX(data []byte) ([]Block, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx container: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, errors.New("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()
	return parseDocumentXML(rc)
}

func parseDocumentXML(r io.Reader) ([]Block, error) {
	decoder := xml.NewDecoder(r)
	var (
		blocks      []Block
		current     strings.Builder
		inParagraph bool
		inText      bool
		style       string
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
				style = ""
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			case "t":
				inText = inParagraph
			case "br", "cr":
				if inParagraph {
					current.WriteByte('\n')
				}
			case "tab":
				if inParagraph {
					current.WriteByte('\t')
				}
			}

		case xml.CharData:
			if inText {
				current.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if !inParagraph {
					continue
				}
				inParagraph = false
				text := strings.TrimRight(current.String(), " \t\n")
				if strings.TrimSpace(text) == "" {
					continue
				}
				blocks = append(blocks, Block{Level: headingLevel(style), Text: text})
			}
		}
	}
	return blocks, nil
}

// headingLevel maps a paragraph style such as "Heading2" or "Title" to 1..6.
func headingLevel(style string) int {
	lower := strings.ToLower(style)
	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	for _, prefix := range []string{"heading", "titre", "überschrift"} {
		if strings.HasPrefix(lower, prefix) {
			rest := lower[len(prefix):]
			if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
				return int(rest[0] - '0')
			}
		}
	}
	return 0
}

// Markup renders blocks as simple HTML: <hN> for headings, <p> for body
// text and <br/> for explicit line breaks.
func Markup(blocks []Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		tag := "p"
		if blk.Level > 0 {
			tag = fmt.Sprintf("h%d", blk.Level)
		}
		b.WriteString("<" + tag + ">")
		for i, line := range strings.Split(blk.Text, "\n") {
			if i > 0 {
				b.WriteString("<br/>")
			}
			b.WriteString(html.EscapeString(line))
		}
		b.WriteString("</" + tag + ">")
	}
	return b.String()
}
