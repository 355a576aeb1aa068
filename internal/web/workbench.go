package web

import (
    "net/http"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/doctools/internal/metrics"
    "github.com/local/doctools/internal/session"
    "github.com/local/doctools/internal/toolkit"
)

const cookieName = "doctools_wb"

// workbench is one browser's set of tool instances.
type workbench struct {
    id    string
    mu    sync.Mutex
    tools map[toolkit.Tool]*session.Tool
    split *session.SplitSession
    // splitDownload is the delivery ID of the current split output.
    splitDownload string
    lastSeen      time.Time
}

func newWorkbench(id string) *workbench {
    wb := &workbench{id: id, tools: map[toolkit.Tool]*session.Tool{}, split: session.NewSplitSession(), lastSeen: time.Now()}
    for _, s := range toolkit.Specs() {
        wb.tools[s.Tool] = session.NewTool(string(s.Tool), s.MinFiles)
    }
    return wb
}

func (wb *workbench) tool(t toolkit.Tool) *session.Tool { return wb.tools[t] }

// registry maps cookie IDs to workbenches and evicts idle ones.
type registry struct {
    mu      sync.Mutex
    benches map[string]*workbench
    ttl     time.Duration
    now     func() time.Time
    stop    chan struct{}
    once    sync.Once
}

func newRegistry(ttl time.Duration) *registry {
    if ttl <= 0 { ttl = 30 * time.Minute }
    r := &registry{benches: map[string]*workbench{}, ttl: ttl, now: time.Now, stop: make(chan struct{})}
    go r.janitor()
    return r
}

func (r *registry) janitor() {
    every := r.ttl / 2
    if every < time.Second { every = time.Second }
    ticker := time.NewTicker(every)
    defer ticker.Stop()
    for {
        select {
        case <-r.stop:
            return
        case <-ticker.C:
            if n := r.evict(); n > 0 {
                log.Debug().Int("evicted", n).Msg("idle workbenches evicted")
            }
        }
    }
}

func (r *registry) evict() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    cutoff := r.now().Add(-r.ttl)
    n := 0
    for id, wb := range r.benches {
        if wb.lastSeen.Before(cutoff) {
            delete(r.benches, id)
            n++
        }
    }
    metrics.SetWorkbenches(len(r.benches))
    return n
}

func (r *registry) close() { r.once.Do(func() { close(r.stop) }) }

// get returns the caller's workbench, creating it and setting the cookie
// when missing or evicted.
func (r *registry) get(wr http.ResponseWriter, req *http.Request) *workbench {
    id := ""
    if c, err := req.Cookie(cookieName); err == nil {
        id = c.Value
    }

    r.mu.Lock()
    defer r.mu.Unlock()
    wb, ok := r.benches[id]
    if !ok {
        id = uuid.NewString()
        wb = newWorkbench(id)
        r.benches[id] = wb
        metrics.SetWorkbenches(len(r.benches))
        http.SetCookie(wr, &http.Cookie{Name: cookieName, Value: id, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
    }
    wb.lastSeen = r.now()
    return wb
}
