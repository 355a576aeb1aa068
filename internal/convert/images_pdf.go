package convert

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/filetype"
	"github.com/local/doctools/internal/intake"
)

// ImagesToPDF makes one page per image, in the given order. Each page is
// exactly the image's pixel size in points and the image fills it. Only
// PNG and JPEG are accepted, judged by content rather than file name.
func ImagesToPDF(images []intake.File) ([]byte, error) {
	const op = "jpg-to-pdf"
	if len(images) == 0 {
		return nil, docerr.Invalid("choose at least one image")
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: PageWidth, Ht: PageHeight}})
	pdf.SetProducer("", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	for i, img := range images {
		var imageType string
		switch img.Info.Kind {
		case filetype.KindPNG:
			imageType = "png"
		case filetype.KindJPEG:
			imageType = "jpg"
		default:
			return nil, docerr.Unsupported(op, "%s is %s; only PNG and JPEG images are supported", img.Name, img.Info.MIMEType)
		}

		cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			return nil, docerr.Parse(op, fmt.Errorf("%s: %w", img.Name, err))
		}
		if cfg.Width == 0 || cfg.Height == 0 {
			return nil, docerr.Parse(op, fmt.Errorf("%s: empty image", img.Name))
		}
		w, h := float64(cfg.Width), float64(cfg.Height)

		name := fmt.Sprintf("image-%d", i+1)
		opt := gofpdf.ImageOptions{ImageType: imageType}
		pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(img.Data))
		if err := pdf.Error(); err != nil {
			// decodable, but the embedder refuses it (16-bit or interlaced PNG)
			return nil, docerr.Unsupported(op, "%s: %v", img.Name, err)
		}
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		pdf.ImageOptions(name, 0, 0, w, h, false, opt, 0, "")
		log.Debug().Str("file", img.Name).Int("width", cfg.Width).Int("height", cfg.Height).Msg("image page added")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, docerr.Encoding(op, err)
	}
	return buf.Bytes(), nil
}
