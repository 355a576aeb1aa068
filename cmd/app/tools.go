package main

import (
    "context"
    "fmt"

    "github.com/rs/zerolog/log"
    "github.com/spf13/cobra"

    cfgpkg "github.com/local/doctools/internal/config"
    "github.com/local/doctools/internal/compress"
    "github.com/local/doctools/internal/intake"
    "github.com/local/doctools/internal/selection"
    "github.com/local/doctools/internal/toolkit"
)

func compressDefaults(c cfgpkg.CompressConfig) (compress.Options, error) {
    mode, err := compress.ParseMode(c.Mode)
    if err != nil { return compress.Options{}, err }
    return compress.Options{Mode: mode, DPI: c.DPI, Quality: c.Quality}, nil
}

// fetchAll reads every input ref (path, s3:// or http URL) in argument order.
func (a *app) fetchAll(ctx context.Context, refs []string) ([]intake.File, error) {
    files := make([]intake.File, 0, len(refs))
    for _, ref := range refs {
        name, data, err := a.sink.Fetch(ctx, ref)
        if err != nil { return nil, fmt.Errorf("read %s: %w", ref, err) }
        files = append(files, intake.FromBytes(name, data))
    }
    return files, nil
}

// run executes tool over refs and writes every artifact to the -o target.
func (a *app) run(cmd *cobra.Command, tool toolkit.Tool, refs []string, req toolkit.Request) error {
    ctx := cmd.Context()
    files, err := a.fetchAll(ctx, refs)
    if err != nil { return err }
    req.Files = files

    res, err := a.runner.Run(ctx, tool, req)
    if err != nil { return err }

    out := a.out
    if len(res.Artifacts) > 1 && out != "" && out[len(out)-1] != '/' {
        out += "/"
    }
    for _, art := range res.Artifacts {
        where, err := a.sink.Write(ctx, out, art)
        if err != nil { return err }
        fmt.Fprintln(cmd.OutOrStdout(), where)
        if d := art.Meta["dropped_lines"]; d != "" && d != "0" {
            log.Warn().Str("tool", string(tool)).Str("dropped_lines", d).Msg("text did not fit on one page, use --paginate to keep it")
        }
    }
    return nil
}

func (a *app) simpleCommand(tool toolkit.Tool, use, short string, args cobra.PositionalArgs) *cobra.Command {
    return &cobra.Command{
        Use:   use,
        Short: short,
        Args:  args,
        RunE: func(cmd *cobra.Command, refs []string) error {
            return a.run(cmd, tool, refs, toolkit.Request{})
        },
    }
}

func (a *app) mergeCommand() *cobra.Command {
    return a.simpleCommand(toolkit.Merge, "merge <a.pdf> <b.pdf>...", "Merge PDFs in argument order", cobra.MinimumNArgs(2))
}

func (a *app) pdfToWordCommand() *cobra.Command {
    return a.simpleCommand(toolkit.PDFToWord, "pdf-to-word <file.pdf>", "Extract PDF text into a DOCX", cobra.ExactArgs(1))
}

func (a *app) jpgToPDFCommand() *cobra.Command {
    return a.simpleCommand(toolkit.JPGToPDF, "jpg-to-pdf <image>...", "Build a PDF with one page per image", cobra.MinimumNArgs(1))
}

func (a *app) splitCommand() *cobra.Command {
    var pages string
    cmd := &cobra.Command{
        Use:   "split <file.pdf> --pages 3,1",
        Short: "Extract pages in the given order",
        Args:  cobra.ExactArgs(1),
        RunE: func(cmd *cobra.Command, refs []string) error {
            sel, err := selection.Parse(pages)
            if err != nil { return err }
            return a.run(cmd, toolkit.Split, refs, toolkit.Request{Pages: sel})
        },
    }
    cmd.Flags().StringVar(&pages, "pages", "", "pages to keep, in output order (e.g. 3,1 or 2-4)")
    _ = cmd.MarkFlagRequired("pages")
    return cmd
}

func (a *app) compressCommand() *cobra.Command {
    var mode string
    var dpi, quality int
    cmd := &cobra.Command{
        Use:   "compress <file.pdf>",
        Short: "Shrink a PDF",
        Args:  cobra.ExactArgs(1),
        RunE: func(cmd *cobra.Command, refs []string) error {
            opts, err := compressDefaults(a.cfg.Compress)
            if err != nil { return err }
            if cmd.Flags().Changed("mode") {
                if opts.Mode, err = compress.ParseMode(mode); err != nil { return err }
            }
            if cmd.Flags().Changed("dpi") { opts.DPI = dpi }
            if cmd.Flags().Changed("quality") { opts.Quality = quality }
            return a.run(cmd, toolkit.Compress, refs, toolkit.Request{Compress: opts})
        },
    }
    cmd.Flags().StringVar(&mode, "mode", "", "metadata or rasterize")
    cmd.Flags().IntVar(&dpi, "dpi", 0, "render resolution for rasterize mode")
    cmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality for rasterize mode")
    return cmd
}

func (a *app) wordToPDFCommand() *cobra.Command {
    var paginate bool
    cmd := &cobra.Command{
        Use:   "word-to-pdf <file.docx>",
        Short: "Convert a DOCX to PDF",
        Args:  cobra.ExactArgs(1),
        RunE: func(cmd *cobra.Command, refs []string) error {
            return a.run(cmd, toolkit.WordToPDF, refs, toolkit.Request{Paginate: paginate})
        },
    }
    cmd.Flags().BoolVar(&paginate, "paginate", false, "continue onto new pages instead of dropping overflow")
    return cmd
}

func (a *app) pdfToJPGCommand() *cobra.Command {
    var asZip, asDir bool
    cmd := &cobra.Command{
        Use:   "pdf-to-jpg <file.pdf>",
        Short: "Render every page to JPEG",
        Args:  cobra.ExactArgs(1),
        RunE: func(cmd *cobra.Command, refs []string) error {
            return a.run(cmd, toolkit.PDFToJPG, refs, toolkit.Request{SeparateImages: asDir || !asZip})
        },
    }
    cmd.Flags().BoolVar(&asZip, "zip", true, "write one zip archive of all pages; --zip=false writes page-N.jpg files")
    cmd.Flags().BoolVar(&asDir, "dir", false, "write page-N.jpg files into the output directory")
    cmd.MarkFlagsMutuallyExclusive("zip", "dir")
    return cmd
}
