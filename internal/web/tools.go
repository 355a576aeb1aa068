package web

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "strings"

    "github.com/go-chi/chi/v5"

    "github.com/local/doctools/internal/compress"
    "github.com/local/doctools/internal/delivery"
    "github.com/local/doctools/internal/docerr"
    "github.com/local/doctools/internal/intake"
    "github.com/local/doctools/internal/metrics"
    "github.com/local/doctools/internal/selection"
    "github.com/local/doctools/internal/session"
    "github.com/local/doctools/internal/toolkit"
)

type toolView struct {
    toolkit.Spec
    State session.ToolState `json:"state"`
}

type runResponse struct {
    State       session.ToolState `json:"state"`
    Download    string            `json:"download"`
    Filename    string            `json:"filename"`
    ContentType string            `json:"content_type"`
    Size        int               `json:"size"`
    Meta        map[string]string `json:"meta,omitempty"`
}

func (w *Web) handleListTools(wr http.ResponseWriter, r *http.Request) {
    wb := w.benches.get(wr, r)
    var out []toolView
    for _, s := range toolkit.Specs() {
        out = append(out, toolView{Spec: s, State: wb.tool(s.Tool).State()})
    }
    writeJSON(wr, http.StatusOK, out)
}

func (w *Web) handleToolState(wr http.ResponseWriter, r *http.Request) {
    spec, ok := toolkit.Lookup(chi.URLParam(r, "tool"))
    if !ok { writeJSON(wr, http.StatusNotFound, errorBody{Error: "unknown tool"}); return }
    wb := w.benches.get(wr, r)
    writeJSON(wr, http.StatusOK, toolView{Spec: spec, State: wb.tool(spec.Tool).State()})
}

// readFiles reads every uploaded part under the given field names, in order.
func (w *Web) readFiles(wr http.ResponseWriter, r *http.Request, fields ...string) ([]intake.File, error) {
    limit := int64(w.deps.MaxUploadMB) << 20
    r.Body = http.MaxBytesReader(wr, r.Body, limit*4)
    if err := r.ParseMultipartForm(32 << 20); err != nil {
        return nil, docerr.Invalid("invalid multipart form")
    }
    var files []intake.File
    for _, field := range fields {
        for _, fh := range r.MultipartForm.File[field] {
            f, err := fh.Open()
            if err != nil { return nil, docerr.Invalid("cannot read %s", fh.Filename) }
            file, err := intake.Read(fh.Filename, f, limit)
            f.Close()
            if err != nil { return nil, docerr.Invalid("%s", err.Error()) }
            files = append(files, file)
        }
    }
    return files, nil
}

// buildRequest reads the tool options from form values.
func buildRequest(r *http.Request, files []intake.File) (toolkit.Request, error) {
    req := toolkit.Request{Files: files}
    if v := strings.TrimSpace(r.FormValue("pages")); v != "" {
        pages, err := selection.Parse(v)
        if err != nil { return req, err }
        req.Pages = pages
    }
    if v := r.FormValue("mode"); v != "" {
        mode, err := compress.ParseMode(v)
        if err != nil { return req, err }
        req.Compress = compress.DefaultOptions()
        req.Compress.Mode = mode
        if n, err := strconv.Atoi(r.FormValue("dpi")); err == nil && n > 0 { req.Compress.DPI = n }
        if n, err := strconv.Atoi(r.FormValue("quality")); err == nil && n > 0 { req.Compress.Quality = n }
    }
    req.Paginate, _ = strconv.ParseBool(r.FormValue("paginate"))
    return req, nil
}

func (w *Web) handleRunTool(wr http.ResponseWriter, r *http.Request) {
    spec, ok := toolkit.Lookup(chi.URLParam(r, "tool"))
    if !ok { writeJSON(wr, http.StatusNotFound, errorBody{Error: "unknown tool"}); return }
    wb := w.benches.get(wr, r)
    tool := wb.tool(spec.Tool)

    files, err := w.readFiles(wr, r, "files", "file")
    if err != nil { writeFailure(wr, "", err, tool.State()); return }
    req, err := buildRequest(r, files)
    if err != nil { writeFailure(wr, "", err, tool.State()); return }

    release, ok := w.deps.Gate.Allow(string(spec.Tool))
    if !ok {
        metrics.IncBusy(string(spec.Tool))
        writeJSON(wr, http.StatusServiceUnavailable, errorBody{Error: "Server is busy, try again shortly.", Kind: docerr.KindBusy})
        return
    }
    defer release()

    names := make([]string, len(files))
    for i, f := range files { names[i] = f.Name }
    previous := tool.State().Result

    var art delivery.Artifact
    state, err := tool.Run(names, func() (string, error) {
        res, err := w.deps.Runner.Run(r.Context(), spec.Tool, req)
        if err != nil { return "", err }
        art = res.Artifacts[0]
        id, err := w.deps.Store.Put(context.WithoutCancel(r.Context()), art)
        if err != nil { return "", fmt.Errorf("store artifact: %w", err) }
        return id, nil
    }, func(err error) string { return toolkit.Describe(spec.Tool, err) })
    if err != nil {
        if errors.Is(err, docerr.ErrBusy) { metrics.IncBusy(string(spec.Tool)) }
        writeFailure(wr, state.Message, err, state)
        return
    }
    if previous != "" && previous != state.Result {
        _ = w.deps.Store.Delete(r.Context(), previous)
    }

    if d := art.Meta["dropped_lines"]; d != "" && d != "0" { wr.Header().Set("X-Dropped-Lines", d) }
    writeJSON(wr, http.StatusOK, runResponse{
        State:       state,
        Download:    "/download/" + state.Result,
        Filename:    art.Filename,
        ContentType: art.ContentType,
        Size:        art.Size(),
        Meta:        art.Meta,
    })
}
