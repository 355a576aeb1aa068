package limiter

import (
    "strings"
    "sync"
)

// Gate caps in-flight operations per key across all workbenches. It never
// queues: a caller over the cap is refused immediately.
type Gate struct {
    maxInflight int
    mu          sync.Mutex
    sem         map[string]chan struct{}
}

type Options struct {
    MaxInflight int
}

func New(opts Options) *Gate {
    if opts.MaxInflight <= 0 { opts.MaxInflight = 2 }
    return &Gate{maxInflight: opts.MaxInflight, sem: map[string]chan struct{}{}}
}

func (g *Gate) slot(key string) chan struct{} {
    key = strings.ToLower(key)
    g.mu.Lock()
    defer g.mu.Unlock()
    ch, ok := g.sem[key]
    if !ok {
        ch = make(chan struct{}, g.maxInflight)
        g.sem[key] = ch
    }
    return ch
}

// Allow tries to reserve a slot for key.
// Returns a release function and true if allowed; otherwise a no-op and false.
func (g *Gate) Allow(key string) (func(), bool) {
    ch := g.slot(key)
    select {
    case ch <- struct{}{}:
        var once sync.Once
        return func() { once.Do(func() { <-ch }) }, true
    default:
        return func() {}, false
    }
}

// InFlight returns the number of reserved slots for key.
func (g *Gate) InFlight(key string) int { return len(g.slot(key)) }
