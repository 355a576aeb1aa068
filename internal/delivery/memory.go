package delivery

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"
)

type memoryEntry struct {
    artifact Artifact
    expires  time.Time
}

// MemoryStore keeps artifacts in process memory until they expire.
type MemoryStore struct {
    mu      sync.Mutex
    items   map[string]memoryEntry
    ttl     time.Duration
    now     func() time.Time
    stop    chan struct{}
    stopped sync.Once
}

// NewMemoryStore starts a store whose janitor sweeps expired entries every
// ttl/2 (at least once a second).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
    if ttl <= 0 { ttl = 15 * time.Minute }
    s := &MemoryStore{items: map[string]memoryEntry{}, ttl: ttl, now: time.Now, stop: make(chan struct{})}
    every := ttl / 2
    if every < time.Second { every = time.Second }
    go s.janitor(every)
    return s
}

func (s *MemoryStore) janitor(every time.Duration) {
    ticker := time.NewTicker(every)
    defer ticker.Stop()
    for {
        select {
        case <-s.stop:
            return
        case <-ticker.C:
            if n := s.sweep(); n > 0 {
                log.Debug().Int("expired", n).Msg("artifacts evicted")
            }
        }
    }
}

func (s *MemoryStore) sweep() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := s.now()
    n := 0
    for id, e := range s.items {
        if now.After(e.expires) {
            delete(s.items, id)
            n++
        }
    }
    return n
}

func (s *MemoryStore) Put(_ context.Context, a Artifact) (string, error) {
    if a.Created.IsZero() { a.Created = s.now() }
    id := uuid.NewString()
    s.mu.Lock()
    s.items[id] = memoryEntry{artifact: a, expires: s.now().Add(s.ttl)}
    s.mu.Unlock()
    return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Artifact, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    e, ok := s.items[id]
    if !ok || s.now().After(e.expires) { return Artifact{}, ErrNotFound }
    return e.artifact, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
    s.mu.Lock()
    delete(s.items, id)
    s.mu.Unlock()
    return nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.items)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error {
    s.stopped.Do(func() { close(s.stop) })
    return nil
}
