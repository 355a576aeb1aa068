package toolkit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/local/doctools/internal/archive"
	"github.com/local/doctools/internal/assemble"
	"github.com/local/doctools/internal/compress"
	"github.com/local/doctools/internal/convert"
	"github.com/local/doctools/internal/delivery"
	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/intake"
	"github.com/local/doctools/internal/logger"
	"github.com/local/doctools/internal/metrics"
	"github.com/local/doctools/internal/pdfdoc"
	"github.com/local/doctools/internal/raster"
	"github.com/local/doctools/internal/selection"
)

// Options are the per-process defaults of the tools.
type Options struct {
	Raster   raster.Options
	Compress compress.Options
	Word     convert.WordOptions
	// LibreOffice, when set and installed, handles Word→PDF with layout.
	LibreOffice *convert.LibreOffice
}

// Request is one invocation. Zero-valued option fields fall back to the
// Runner's defaults.
type Request struct {
	Files []intake.File
	// Pages is the ordered selection for Split, 1-based.
	Pages []int
	// Compress overrides the default compression settings when Mode is set.
	Compress compress.Options
	// Paginate forces Word→PDF pagination on.
	Paginate bool
	// SeparateImages makes PDF→JPG return one artifact per page instead
	// of a zip archive.
	SeparateImages bool
}

// Result holds the produced artifacts, usually exactly one.
type Result struct {
	Artifacts []delivery.Artifact
	Pages     int
}

// Runner executes tools.
type Runner struct {
	opts Options
}

// New returns a runner with the given defaults.
func New(opts Options) *Runner {
	if opts.Compress.Mode == "" {
		opts.Compress = compress.DefaultOptions()
	}
	if opts.Raster.Scale <= 0 {
		opts.Raster = raster.DefaultOptions()
	}
	return &Runner{opts: opts}
}

// Run executes tool over req. Every error it returns is a *Failure carrying
// the user-facing message; no partial output is returned.
func (r *Runner) Run(ctx context.Context, tool Tool, req Request) (res Result, err error) {
	spec, ok := Lookup(string(tool))
	if !ok {
		return Result{}, &Failure{Tool: tool, Kind: docerr.KindValidation, Message: fmt.Sprintf("unknown tool %q", tool), Err: docerr.Invalid("unknown tool %q", tool)}
	}
	lg := logger.For(string(tool))
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		dur := time.Since(start)
		if err != nil {
			f := fail(tool, err)
			res, err = Result{}, f
			lg.Warn().Err(f.Err).Str("kind", string(f.Kind)).Dur("duration", dur).Msg(f.Message)
			metrics.ObserveOperation(string(tool), string(f.Kind), dur)
			return
		}
		size := 0
		for _, a := range res.Artifacts {
			size += a.Size()
			metrics.ObserveOutput(string(tool), a.Size())
		}
		metrics.ObserveOperation(string(tool), "success", dur)
		metrics.AddPages(string(tool), res.Pages)
		lg.Info().Int("files", len(req.Files)).Int("pages", res.Pages).Int("bytes_out", size).Dur("duration", dur).Msg("operation finished")
	}()

	if len(req.Files) < spec.MinFiles {
		if spec.MinFiles == 1 {
			return Result{}, docerr.Invalid("choose a file")
		}
		return Result{}, docerr.Invalid("choose at least %d files", spec.MinFiles)
	}
	if !spec.Multiple && len(req.Files) > 1 {
		return Result{}, docerr.Invalid("%s takes a single file", spec.Title)
	}
	intake.Check(string(tool), spec.Accept, req.Files)

	switch tool {
	case Merge:
		return r.merge(req)
	case Split:
		return r.split(req)
	case Compress:
		return r.compress(lg, req)
	case WordToPDF:
		return r.wordToPDF(ctx, lg, req)
	case PDFToWord:
		return r.pdfToWord(req)
	case PDFToJPG:
		return r.pdfToJPG(req)
	case JPGToPDF:
		return r.jpgToPDF(req)
	}
	return Result{}, docerr.Invalid("unknown tool %q", tool)
}

func pdfArtifact(tool Tool, input string, data []byte) delivery.Artifact {
	return delivery.Artifact{Filename: SuggestName(tool, input), ContentType: delivery.ContentTypePDF, Data: data, Created: time.Now()}
}

func (r *Runner) merge(req Request) (Result, error) {
	docs := make([]*pdfdoc.Document, 0, len(req.Files))
	pages := 0
	for _, f := range req.Files {
		d, err := pdfdoc.Load(f.Name, f.Data)
		if err != nil {
			return Result{}, err
		}
		docs = append(docs, d)
		pages += d.PageCount()
	}
	out, err := assemble.Merge(docs)
	if err != nil {
		return Result{}, err
	}
	return Result{Artifacts: []delivery.Artifact{pdfArtifact(Merge, "", out)}, Pages: pages}, nil
}

func (r *Runner) split(req Request) (Result, error) {
	f := req.Files[0]
	doc, err := pdfdoc.Load(f.Name, f.Data)
	if err != nil {
		return Result{}, err
	}
	sel, err := selection.FromPages(doc.PageCount(), req.Pages)
	if err != nil {
		return Result{}, err
	}
	out, err := assemble.Split(doc, sel)
	if err != nil {
		return Result{}, err
	}
	return Result{Artifacts: []delivery.Artifact{pdfArtifact(Split, f.Name, out)}, Pages: sel.Len()}, nil
}

func (r *Runner) compress(lg zerolog.Logger, req Request) (Result, error) {
	f := req.Files[0]
	opts := r.opts.Compress
	if req.Compress.Mode != "" {
		opts = req.Compress
	}
	res, err := compress.Compress(f.Data, opts)
	if err != nil {
		return Result{}, err
	}
	if !res.Reduced {
		lg.Info().Str("file", f.Name).Msg("compression did not reduce size, returning original")
	}
	a := pdfArtifact(Compress, f.Name, res.Data)
	a.Meta = map[string]string{
		"mode":      string(res.Mode),
		"reduced":   strconv.FormatBool(res.Reduced),
		"bytes_in":  strconv.Itoa(res.InputBytes),
		"bytes_out": strconv.Itoa(res.OutputBytes),
	}
	return Result{Artifacts: []delivery.Artifact{a}}, nil
}

func (r *Runner) wordToPDF(ctx context.Context, lg zerolog.Logger, req Request) (Result, error) {
	f := req.Files[0]
	if lo := r.opts.LibreOffice; lo != nil && lo.Available() {
		out, err := lo.ConvertDOCX(ctx, f.Data)
		if err == nil {
			a := pdfArtifact(WordToPDF, f.Name, out)
			a.Meta = map[string]string{"backend": "libreoffice"}
			return Result{Artifacts: []delivery.Artifact{a}}, nil
		}
		lg.Warn().Err(err).Str("file", f.Name).Msg("libreoffice conversion failed, falling back to text layout")
	}

	opts := r.opts.Word
	if req.Paginate {
		opts.Paginate = true
	}
	res, err := convert.WordToPDF(f.Data, opts)
	if err != nil {
		return Result{}, err
	}
	a := pdfArtifact(WordToPDF, f.Name, res.PDF)
	a.Meta = map[string]string{
		"backend":       "text",
		"lines":         strconv.Itoa(res.Lines),
		"dropped_lines": strconv.Itoa(res.Dropped),
	}
	return Result{Artifacts: []delivery.Artifact{a}, Pages: res.Pages}, nil
}

func (r *Runner) pdfToWord(req Request) (Result, error) {
	f := req.Files[0]
	doc, err := convert.PDFToWord(f.Data)
	if err != nil {
		return Result{}, err
	}
	a := delivery.Artifact{
		Filename:    SuggestName(PDFToWord, f.Name),
		ContentType: delivery.ContentTypeDOCX,
		Data:        doc.DOCX,
		Meta:        map[string]string{"empty_pages": strconv.Itoa(doc.EmptyPages)},
		Created:     time.Now(),
	}
	return Result{Artifacts: []delivery.Artifact{a}, Pages: doc.Pages}, nil
}

func (r *Runner) pdfToJPG(req Request) (Result, error) {
	images, err := raster.RenderAll(req.Files[0].Data, r.opts.Raster)
	if err != nil {
		return Result{}, err
	}
	if req.SeparateImages {
		out := make([]delivery.Artifact, len(images))
		for i, img := range images {
			out[i] = delivery.Artifact{Filename: archive.EntryName(img.Page), ContentType: delivery.ContentTypeJPEG, Data: img.Data, Created: time.Now()}
		}
		return Result{Artifacts: out, Pages: len(images)}, nil
	}
	zipped, err := archive.Pack(images)
	if err != nil {
		return Result{}, err
	}
	a := delivery.Artifact{Filename: archive.DefaultName, ContentType: delivery.ContentTypeZIP, Data: zipped, Created: time.Now()}
	return Result{Artifacts: []delivery.Artifact{a}, Pages: len(images)}, nil
}

func (r *Runner) jpgToPDF(req Request) (Result, error) {
	out, err := convert.ImagesToPDF(req.Files)
	if err != nil {
		return Result{}, err
	}
	return Result{Artifacts: []delivery.Artifact{pdfArtifact(JPGToPDF, "", out)}, Pages: len(req.Files)}, nil
}
