package web

import (
    "errors"
    "mime"
    "net/http"
    "strconv"

    "github.com/go-chi/chi/v5"

    "github.com/local/doctools/internal/delivery"
)

func (w *Web) handleDownload(wr http.ResponseWriter, r *http.Request) {
    a, err := w.deps.Store.Get(r.Context(), chi.URLParam(r, "id"))
    if errors.Is(err, delivery.ErrNotFound) {
        writeJSON(wr, http.StatusNotFound, errorBody{Error: "download expired or revoked"})
        return
    }
    if err != nil { writeJSON(wr, http.StatusInternalServerError, errorBody{Error: "download unavailable"}); return }

    h := wr.Header()
    h.Set("Content-Type", a.ContentType)
    h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
    h.Set("Content-Length", strconv.Itoa(a.Size()))
    if d := a.Meta["dropped_lines"]; d != "" && d != "0" { h.Set("X-Dropped-Lines", d) }
    wr.WriteHeader(http.StatusOK)
    _, _ = wr.Write(a.Data)
}

func (w *Web) handleRevoke(wr http.ResponseWriter, r *http.Request) {
    if err := w.deps.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
        writeJSON(wr, http.StatusInternalServerError, errorBody{Error: "revoke failed"})
        return
    }
    wr.WriteHeader(http.StatusNoContent)
}
