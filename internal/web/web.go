package web

import (
    "embed"
    "html/template"
    "net/http"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/rs/zerolog/log"

    "github.com/local/doctools/internal/delivery"
    "github.com/local/doctools/internal/limiter"
    "github.com/local/doctools/internal/metrics"
    "github.com/local/doctools/internal/statuscheck"
    "github.com/local/doctools/internal/toolkit"
)

//go:embed templates/*.html
var templateFS embed.FS

// Deps are the collaborators of the workbench server.
type Deps struct {
    Runner      *toolkit.Runner
    Store       delivery.Store
    Gate        *limiter.Gate
    Status      *statuscheck.Checker
    MaxUploadMB int
    IdleTTL     time.Duration
}

// Web serves the HTTP workbench: one set of tool instances per browser.
type Web struct {
    tpl     *template.Template
    deps    Deps
    benches *registry
}

func New(d Deps) *Web {
    if d.MaxUploadMB <= 0 { d.MaxUploadMB = 64 }
    if d.Gate == nil { d.Gate = limiter.New(limiter.Options{}) }
    tpl := template.Must(template.ParseFS(templateFS, "templates/*.html"))
    return &Web{tpl: tpl, deps: d, benches: newRegistry(d.IdleTTL)}
}

// Close stops the workbench janitor.
func (w *Web) Close() { w.benches.close() }

// Router builds the chi router with every route.
func (w *Web) Router() http.Handler {
    r := chi.NewRouter()
    r.Use(middleware.RequestID)
    r.Use(middleware.RealIP)
    r.Use(requestLogger)
    r.Use(middleware.Recoverer)

    r.Get("/", w.handleDashboard)
    r.Get("/health", func(wr http.ResponseWriter, _ *http.Request) {
        writeJSON(wr, http.StatusOK, map[string]string{"status": "ok"})
    })
    r.Get("/status", w.handleStatus)
    r.Handle("/metrics", metrics.Handler())

    r.Route("/api/tools", func(r chi.Router) {
        r.Get("/", w.handleListTools)
        r.Get("/{tool}", w.handleToolState)
        r.Post("/{tool}", w.handleRunTool)
    })
    r.Route("/api/split", func(r chi.Router) {
        r.Get("/", w.handleSplitState)
        r.Post("/file", w.handleSplitFile)
        r.Post("/toggle/{page}", w.handleSplitToggle)
        r.Post("/reset", w.handleSplitReset)
        r.Post("/produce", w.handleSplitProduce)
    })
    r.Get("/download/{id}", w.handleDownload)
    r.Delete("/download/{id}", w.handleRevoke)
    return r
}

func (w *Web) render(wr http.ResponseWriter, name string, data any) {
    wr.Header().Set("Content-Type", "text/html; charset=utf-8")
    if err := w.tpl.ExecuteTemplate(wr, name, data); err != nil {
        log.Error().Err(err).Str("template", name).Msg("render failed")
    }
}

func (w *Web) handleDashboard(wr http.ResponseWriter, r *http.Request) {
    wb := w.benches.get(wr, r)
    type row struct {
        toolkit.Spec
        Phase   string
        Message string
        Result  string
    }
    var rows []row
    for _, s := range toolkit.Specs() {
        st := wb.tool(s.Tool).State()
        rows = append(rows, row{Spec: s, Phase: string(st.Phase), Message: st.Message, Result: st.Result})
    }
    w.render(wr, "dashboard.html", map[string]any{
        "Tools": rows,
        "Split": w.splitView(wb),
    })
}

func (w *Web) handleStatus(wr http.ResponseWriter, r *http.Request) {
    if w.deps.Status == nil {
        writeJSON(wr, http.StatusOK, map[string]string{"status": "ok"})
        return
    }
    writeJSON(wr, http.StatusOK, w.deps.Status.Summary(r.Context()))
}

func requestLogger(next http.Handler) http.Handler {
    return http.HandlerFunc(func(wr http.ResponseWriter, r *http.Request) {
        start := time.Now()
        ww := middleware.NewWrapResponseWriter(wr, r.ProtoMajor)
        next.ServeHTTP(ww, r)
        log.Debug().
            Str("method", r.Method).
            Str("path", r.URL.Path).
            Int("status", ww.Status()).
            Int("bytes", ww.BytesWritten()).
            Str("request_id", middleware.GetReqID(r.Context())).
            Dur("duration", time.Since(start)).
            Msg("http request")
    })
}
