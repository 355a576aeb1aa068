package web

import (
    "bytes"
    "encoding/json"
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "net/http/cookiejar"
    "net/http/httptest"
    "net/url"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/local/doctools/internal/delivery"
    "github.com/local/doctools/internal/limiter"
    "github.com/local/doctools/internal/pdfdoc"
    "github.com/local/doctools/internal/pdftest"
    "github.com/local/doctools/internal/pdftext"
    "github.com/local/doctools/internal/session"
    "github.com/local/doctools/internal/toolkit"
)

type upload struct {
    field, name string
    data        []byte
}

type harness struct {
    t      *testing.T
    web    *Web
    srv    *httptest.Server
    client *http.Client
}

func newHarness(t *testing.T, gate *limiter.Gate) *harness {
    t.Helper()
    store := delivery.NewMemoryStore(time.Minute)
    w := New(Deps{Runner: toolkit.New(toolkit.Options{}), Store: store, Gate: gate, IdleTTL: time.Minute})
    srv := httptest.NewServer(w.Router())
    jar, err := cookiejar.New(nil)
    require.NoError(t, err)
    t.Cleanup(func() {
        srv.Close()
        w.Close()
        store.Close()
    })
    return &harness{t: t, web: w, srv: srv, client: &http.Client{Jar: jar}}
}

func (h *harness) post(path string, fields map[string]string, files ...upload) *http.Response {
    h.t.Helper()
    var body bytes.Buffer
    mw := multipart.NewWriter(&body)
    for _, f := range files {
        part, err := mw.CreateFormFile(f.field, f.name)
        require.NoError(h.t, err)
        _, err = part.Write(f.data)
        require.NoError(h.t, err)
    }
    for k, v := range fields {
        require.NoError(h.t, mw.WriteField(k, v))
    }
    require.NoError(h.t, mw.Close())
    req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, &body)
    require.NoError(h.t, err)
    req.Header.Set("Content-Type", mw.FormDataContentType())
    resp, err := h.client.Do(req)
    require.NoError(h.t, err)
    return resp
}

func (h *harness) do(method, path string) *http.Response {
    h.t.Helper()
    req, err := http.NewRequest(method, h.srv.URL+path, nil)
    require.NoError(h.t, err)
    resp, err := h.client.Do(req)
    require.NoError(h.t, err)
    return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
    t.Helper()
    defer resp.Body.Close()
    var v T
    require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
    return v
}

func readAll(t *testing.T, resp *http.Response) []byte {
    t.Helper()
    defer resp.Body.Close()
    b, err := io.ReadAll(resp.Body)
    require.NoError(t, err)
    return b
}

func TestHealthAndDashboard(t *testing.T) {
    h := newHarness(t, nil)

    resp := h.do(http.MethodGet, "/health")
    assert.Equal(t, http.StatusOK, resp.StatusCode)
    assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))

    resp = h.do(http.MethodGet, "/")
    assert.Equal(t, http.StatusOK, resp.StatusCode)
    page := string(readAll(t, resp))
    assert.Contains(t, page, "Merge PDF")
    assert.Contains(t, page, `action="/api/split/file"`)

    u, _ := url.Parse(h.srv.URL)
    assert.NotEmpty(t, h.client.Jar.Cookies(u))
}

func TestRunMergeAndDownload(t *testing.T) {
    h := newHarness(t, nil)
    resp := h.post("/api/tools/merge", nil,
        upload{"files", "a.pdf", pdftest.PDF(t, "A1", "A2")},
        upload{"files", "b.pdf", pdftest.PDF(t, "B1")},
    )
    require.Equal(t, http.StatusOK, resp.StatusCode)
    out := decode[runResponse](t, resp)
    assert.Equal(t, session.Done, out.State.Phase)
    assert.Equal(t, "merged.pdf", out.Filename)
    assert.Equal(t, []string{"a.pdf", "b.pdf"}, out.State.Files)

    resp = h.do(http.MethodGet, out.Download)
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
    assert.Equal(t, `attachment; filename=merged.pdf`, resp.Header.Get("Content-Disposition"))
    data := readAll(t, resp)
    doc, err := pdfdoc.Load("merged.pdf", data)
    require.NoError(t, err)
    assert.Equal(t, 3, doc.PageCount())

    resp = h.do(http.MethodDelete, out.Download)
    assert.Equal(t, http.StatusNoContent, resp.StatusCode)
    resp = h.do(http.MethodGet, out.Download)
    assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunToolErrors(t *testing.T) {
    h := newHarness(t, nil)

    resp := h.post("/api/tools/merge", nil, upload{"files", "a.pdf", pdftest.PDF(t, "A")})
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
    body := decode[errorBody](t, resp)
    assert.Equal(t, "validation_error", string(body.Kind))

    resp = h.post("/api/tools/merge", nil,
        upload{"files", "a.pdf", pdftest.PDF(t, "A")},
        upload{"files", "b.pdf", []byte("broken")},
    )
    assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
    body = decode[errorBody](t, resp)
    assert.Equal(t, "Could not merge PDF files. Please ensure all files are valid PDFs.", body.Error)

    resp = h.do(http.MethodGet, "/api/tools/merge")
    st := decode[toolView](t, resp)
    assert.Equal(t, session.Failed, st.State.Phase)

    resp = h.post("/api/tools/rotate", nil)
    assert.Equal(t, http.StatusNotFound, resp.StatusCode)
    resp.Body.Close()
}

func TestWordToPDFDroppedLinesHeader(t *testing.T) {
    h := newHarness(t, nil)
    paras := make([]string, 50)
    for i := range paras { paras[i] = fmt.Sprintf("line %d", i+1) }

    resp := h.post("/api/tools/word-to-pdf", nil, upload{"files", "long.docx", pdftest.DOCX(t, paras...)})
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.Equal(t, "12", resp.Header.Get("X-Dropped-Lines"))
    out := decode[runResponse](t, resp)
    assert.Equal(t, "long.pdf", out.Filename)

    resp = h.do(http.MethodGet, out.Download)
    assert.Equal(t, "12", resp.Header.Get("X-Dropped-Lines"))
    resp.Body.Close()

    resp = h.post("/api/tools/word-to-pdf", map[string]string{"paginate": "true"}, upload{"files", "long.docx", pdftest.DOCX(t, paras...)})
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.Empty(t, resp.Header.Get("X-Dropped-Lines"))
    resp.Body.Close()
}

func TestSplitFlow(t *testing.T) {
    h := newHarness(t, nil)

    resp := h.post("/api/split/file", nil, upload{"file", "doc.pdf", pdftest.PDF(t, "one", "two", "three")})
    require.Equal(t, http.StatusOK, resp.StatusCode)
    v := decode[splitView](t, resp)
    assert.Equal(t, session.SplitLoaded, v.Phase)
    assert.Equal(t, 3, v.PageCount)
    assert.False(t, v.CanProduce)

    resp = h.do(http.MethodPost, "/api/split/produce")
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
    resp.Body.Close()

    decode[splitView](t, h.do(http.MethodPost, "/api/split/toggle/3"))
    v = decode[splitView](t, h.do(http.MethodPost, "/api/split/toggle/1"))
    assert.Equal(t, []int{3, 1}, v.Selected)
    assert.True(t, v.CanProduce)

    resp = h.do(http.MethodPost, "/api/split/toggle/9")
    assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
    resp.Body.Close()

    resp = h.do(http.MethodPost, "/api/split/produce")
    require.Equal(t, http.StatusOK, resp.StatusCode)
    v = decode[splitView](t, resp)
    assert.Equal(t, session.SplitProduced, v.Phase)
    require.NotEmpty(t, v.Download)

    resp = h.do(http.MethodGet, v.Download)
    require.Equal(t, http.StatusOK, resp.StatusCode)
    assert.Contains(t, resp.Header.Get("Content-Disposition"), "split.pdf")
    pages, err := pdftext.NewExtractor().Pages(readAll(t, resp))
    require.NoError(t, err)
    require.Len(t, pages, 2)
    assert.Contains(t, pages[0].Text, "three")
    assert.Contains(t, pages[1].Text, "one")

    // loading a new file drops the old output
    resp = h.post("/api/split/file", nil, upload{"file", "other.pdf", pdftest.PDF(t, "x")})
    require.Equal(t, http.StatusOK, resp.StatusCode)
    resp.Body.Close()
    resp = h.do(http.MethodGet, v.Download)
    assert.Equal(t, http.StatusNotFound, resp.StatusCode)
    resp.Body.Close()
}

func TestSplitRejectsCorruptFile(t *testing.T) {
    h := newHarness(t, nil)
    resp := h.post("/api/split/file", nil, upload{"file", "bad.pdf", []byte("nope")})
    assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
    body := decode[errorBody](t, resp)
    assert.Equal(t, "Not a valid PDF.", body.Error)
}

func TestGateRejects(t *testing.T) {
    gate := limiter.New(limiter.Options{MaxInflight: 1})
    release, ok := gate.Allow(string(toolkit.Compress))
    require.True(t, ok)
    defer release()

    h := newHarness(t, gate)
    resp := h.post("/api/tools/compress", nil, upload{"files", "a.pdf", pdftest.PDF(t, "A")})
    assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
    resp.Body.Close()
}

func TestBusyToolConflict(t *testing.T) {
    h := newHarness(t, nil)
    resp := h.do(http.MethodGet, "/api/tools/compress")
    resp.Body.Close()

    u, _ := url.Parse(h.srv.URL)
    var id string
    for _, c := range h.client.Jar.Cookies(u) {
        if c.Name == cookieName { id = c.Value }
    }
    require.NotEmpty(t, id)
    h.web.benches.mu.Lock()
    wb := h.web.benches.benches[id]
    h.web.benches.mu.Unlock()
    tool := wb.tool(toolkit.Compress)
    _, err := tool.Dispatch(session.LoadFiles{Names: []string{"x.pdf"}})
    require.NoError(t, err)
    _, err = tool.Dispatch(session.Start{})
    require.NoError(t, err)

    resp = h.post("/api/tools/compress", nil, upload{"files", "a.pdf", pdftest.PDF(t, "A")})
    assert.Equal(t, http.StatusConflict, resp.StatusCode)
    body := decode[errorBody](t, resp)
    assert.Equal(t, "busy", string(body.Kind))
}

func TestRegistryEviction(t *testing.T) {
    r := newRegistry(time.Minute)
    defer r.close()
    now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
    r.now = func() time.Time { return now }

    rec := httptest.NewRecorder()
    wb := r.get(rec, httptest.NewRequest(http.MethodGet, "/", nil))
    require.NotNil(t, wb)
    assert.Equal(t, 0, r.evict())

    now = now.Add(2 * time.Minute)
    assert.Equal(t, 1, r.evict())

    req := httptest.NewRequest(http.MethodGet, "/", nil)
    req.AddCookie(&http.Cookie{Name: cookieName, Value: wb.id})
    again := r.get(httptest.NewRecorder(), req)
    assert.NotEqual(t, wb.id, again.id)
}

func TestStatusWithoutChecker(t *testing.T) {
    h := newHarness(t, nil)
    resp := h.do(http.MethodGet, "/status")
    assert.Equal(t, http.StatusOK, resp.StatusCode)
    resp.Body.Close()
}
