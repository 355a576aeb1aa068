package pdfdoc

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/local/doctools/internal/docerr"
)

// StripMetadata drops the information dictionary and the XMP stream. When
// the context is written, pdfcpu creates a fresh info dict holding only its
// own Producer and the dates, so no source value survives.
func StripMetadata(ctx *model.Context) {
	ctx.Info = nil
	if ctx.RootDict != nil {
		ctx.RootDict.Delete("Metadata")
	}
}

// Finalize re-reads an assembled PDF, strips its metadata, drops unused
// objects and serializes it once. Failures are EncodingErrors for op.
func Finalize(op string, data []byte) ([]byte, error) {
	var out bytes.Buffer
	err := Guard(func() error {
		ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), Conf())
		if err != nil {
			return err
		}
		StripMetadata(ctx)
		return api.WriteContext(ctx, &out)
	})
	if err != nil {
		return nil, docerr.Encoding(op, err)
	}
	return out.Bytes(), nil
}

// Rewrite strips metadata from an already-loaded document and serializes it.
// The document's context is consumed.
func (d *Document) Rewrite(op string) ([]byte, error) {
	var out bytes.Buffer
	err := Guard(func() error {
		StripMetadata(d.ctx)
		return api.WriteContext(d.ctx, &out)
	})
	if err != nil {
		return nil, docerr.Encoding(op, err)
	}
	return out.Bytes(), nil
}
