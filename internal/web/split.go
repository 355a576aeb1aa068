package web

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"

    "github.com/local/doctools/internal/delivery"
    "github.com/local/doctools/internal/docerr"
    "github.com/local/doctools/internal/metrics"
    "github.com/local/doctools/internal/session"
    "github.com/local/doctools/internal/toolkit"
)

type splitView struct {
    Phase      session.SplitPhase `json:"phase"`
    File       string             `json:"file,omitempty"`
    PageCount  int                `json:"page_count"`
    Selected   []int              `json:"selected"`
    CanProduce bool               `json:"can_produce"`
    Download   string             `json:"download,omitempty"`
    Error      string             `json:"error,omitempty"`
    Kind       docerr.Kind        `json:"kind,omitempty"`
}

func (w *Web) splitView(wb *workbench) splitView {
    st := wb.split.State()
    v := splitView{
        Phase:      st.Phase,
        File:       st.File,
        PageCount:  st.PageCount(),
        Selected:   st.Selection.Pages(),
        CanProduce: session.CanProduce(st),
    }
    if v.Selected == nil { v.Selected = []int{} }
    if st.Err != nil {
        v.Error = toolkit.Describe(toolkit.Split, st.Err)
        v.Kind = docerr.KindOf(st.Err)
    }
    if st.Phase == session.SplitProduced {
        wb.mu.Lock()
        if wb.splitDownload != "" { v.Download = "/download/" + wb.splitDownload }
        wb.mu.Unlock()
    }
    return v
}

// revokeSplit drops the previous split output.
func (w *Web) revokeSplit(ctx context.Context, wb *workbench) {
    wb.mu.Lock()
    id := wb.splitDownload
    wb.splitDownload = ""
    wb.mu.Unlock()
    if id != "" { _ = w.deps.Store.Delete(ctx, id) }
}

func (w *Web) splitFailure(wr http.ResponseWriter, wb *workbench, err error) {
    writeFailure(wr, toolkit.Describe(toolkit.Split, err), err, w.splitView(wb))
}

func (w *Web) handleSplitState(wr http.ResponseWriter, r *http.Request) {
    wb := w.benches.get(wr, r)
    writeJSON(wr, http.StatusOK, w.splitView(wb))
}

func (w *Web) handleSplitFile(wr http.ResponseWriter, r *http.Request) {
    wb := w.benches.get(wr, r)
    files, err := w.readFiles(wr, r, "file", "files")
    if err != nil { writeFailure(wr, "", err, w.splitView(wb)); return }
    if len(files) != 1 { writeFailure(wr, "", docerr.Invalid("choose one PDF file"), w.splitView(wb)); return }

    if _, err := wb.split.Load(files[0].Name, files[0].Data); err != nil {
        if docerr.KindOf(err) != docerr.KindBusy { w.revokeSplit(r.Context(), wb) }
        w.splitFailure(wr, wb, err)
        return
    }
    w.revokeSplit(r.Context(), wb)
    writeJSON(wr, http.StatusOK, w.splitView(wb))
}

func (w *Web) handleSplitToggle(wr http.ResponseWriter, r *http.Request) {
    wb := w.benches.get(wr, r)
    page, err := strconv.Atoi(chi.URLParam(r, "page"))
    if err != nil { writeFailure(wr, "", docerr.Invalid("page must be a number"), w.splitView(wb)); return }
    if _, err := wb.split.Toggle(page); err != nil {
        w.splitFailure(wr, wb, err)
        return
    }
    writeJSON(wr, http.StatusOK, w.splitView(wb))
}

func (w *Web) handleSplitReset(wr http.ResponseWriter, r *http.Request) {
    wb := w.benches.get(wr, r)
    if _, err := wb.split.Reset(); err != nil {
        w.splitFailure(wr, wb, err)
        return
    }
    w.revokeSplit(r.Context(), wb)
    writeJSON(wr, http.StatusOK, w.splitView(wb))
}

func (w *Web) handleSplitProduce(wr http.ResponseWriter, r *http.Request) {
    wb := w.benches.get(wr, r)
    release, ok := w.deps.Gate.Allow(string(toolkit.Split))
    if !ok {
        metrics.IncBusy(string(toolkit.Split))
        writeJSON(wr, http.StatusServiceUnavailable, errorBody{Error: "Server is busy, try again shortly.", Kind: docerr.KindBusy})
        return
    }
    defer release()

    start := time.Now()
    st, err := wb.split.Produce()
    if err != nil {
        kind := docerr.KindOf(err)
        if kind == docerr.KindBusy { metrics.IncBusy(string(toolkit.Split)) }
        metrics.ObserveOperation(string(toolkit.Split), string(kind), time.Since(start))
        w.splitFailure(wr, wb, err)
        return
    }
    metrics.ObserveOperation(string(toolkit.Split), "success", time.Since(start))
    metrics.AddPages(string(toolkit.Split), st.Selection.Len())
    metrics.ObserveOutput(string(toolkit.Split), len(st.Output))

    id, err := w.deps.Store.Put(r.Context(), delivery.Artifact{
        Filename:    toolkit.SuggestName(toolkit.Split, st.File),
        ContentType: delivery.ContentTypePDF,
        Data:        st.Output,
        Created:     time.Now(),
    })
    if err != nil { writeFailure(wr, "Could not split PDF.", err, nil); return }
    w.revokeSplit(r.Context(), wb)
    wb.mu.Lock()
    wb.splitDownload = id
    wb.mu.Unlock()
    writeJSON(wr, http.StatusOK, w.splitView(wb))
}
