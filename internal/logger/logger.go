package logger

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "sync"
    "time"

    "github.com/axiomhq/axiom-go/axiom"
    "github.com/axiomhq/axiom-go/axiom/ingest"
    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const (
    defaultService = "doctools"
    shipBuffer     = 1000
    shipBatch      = 200
)

// Options defines logger initialization parameters.
type Options struct {
    Service    string
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool

    // Console receives human/JSON output. Nil means stdout; the CLI passes
    // stderr so that stdout stays free for output paths.
    Console io.Writer

    // Axiom
    SendToAxiom  bool
    AxiomAPIKey  string
    AxiomOrgID   string
    AxiomDataset string
    AxiomFlush   time.Duration
    // AxiomMinLevel drops lighter events before shipping. Zero value ships info and above.
    AxiomMinLevel zerolog.Level
}

var (
    global  zerolog.Logger
    shipper *axiomShipper
)

// Init sets up the global logger: console, optional rotated file, optional Axiom forwarding.
func Init(opts Options) error {
    if opts.Service == "" { opts.Service = defaultService }
    writers, err := buildWriters(opts)
    if err != nil { return err }

    zerolog.TimeFieldFormat = time.RFC3339
    lvl, err := zerolog.ParseLevel(opts.Level)
    if err != nil || opts.Level == "" {
        lvl = zerolog.InfoLevel
    }

    global = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(lvl).With().Timestamp().Str("service", opts.Service).Logger()
    log.Logger = global
    return nil
}

func buildWriters(opts Options) ([]io.Writer, error) {
    var writers []io.Writer

    console := opts.Console
    if console == nil { console = os.Stdout }
    if opts.Pretty {
        writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339})
    } else {
        writers = append(writers, console)
    }

    if opts.File != "" {
        if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
            return nil, fmt.Errorf("create logs dir: %w", err)
        }
        writers = append(writers, &lumberjack.Logger{
            Filename:   opts.File,
            MaxSize:    opts.MaxSizeMB,
            MaxBackups: opts.MaxBackups,
            MaxAge:     opts.MaxAgeDays,
            Compress:   opts.Compress,
        })
    }

    if opts.SendToAxiom && opts.AxiomAPIKey != "" {
        s, err := newAxiomShipper(opts)
        if err != nil {
            fmt.Fprintf(os.Stderr, "Axiom disabled: %v\n", err)
        } else {
            shipper = s
            minLevel := opts.AxiomMinLevel
            if minLevel == zerolog.DebugLevel { minLevel = zerolog.InfoLevel }
            writers = append(writers, &levelFilter{min: minLevel, w: &axiomWriter{ship: s.enqueue, service: opts.Service}})
        }
    }
    return writers, nil
}

// Close flushes the Axiom shipper, if any.
func Close() {
    if shipper != nil {
        shipper.close()
        shipper = nil
    }
}

// Get returns the global logger.
func Get() *zerolog.Logger { return &global }

// For returns a child logger tagged with the tool name.
func For(tool string) zerolog.Logger {
    return log.Logger.With().Str("tool", tool).Logger()
}

// levelFilter passes events at or above min to w.
type levelFilter struct {
    min zerolog.Level
    w   io.Writer
}

func (f *levelFilter) Write(p []byte) (int, error) { return f.w.Write(p) }

func (f *levelFilter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
    if l < f.min { return len(p), nil }
    return f.w.Write(p)
}

// axiomWriter turns zerolog JSON lines into Axiom events.
type axiomWriter struct {
    ship    func(axiom.Event)
    service string
}

func (w *axiomWriter) Write(p []byte) (int, error) {
    var ev map[string]any
    if err := json.Unmarshal(p, &ev); err != nil {
        ev = map[string]any{"message": string(p), "level": "info"}
    }
    ev["service"] = w.service
    if _, ok := ev[ingest.TimestampField]; !ok {
        ev[ingest.TimestampField] = time.Now()
    }
    w.ship(axiom.Event(ev))
    return len(p), nil
}

// axiomShipper batches events and ingests them when a batch fills or the
// flush interval passes. Events beyond the buffer are dropped.
type axiomShipper struct {
    client  *axiom.Client
    dataset string
    events  chan axiom.Event
    done    chan struct{}
    wg      sync.WaitGroup
    once    sync.Once
}

func newAxiomShipper(opts Options) (*axiomShipper, error) {
    dataset := opts.AxiomDataset
    if dataset == "" { dataset = "dev_" + defaultService }
    clientOpts := []axiom.Option{axiom.SetToken(opts.AxiomAPIKey)}
    if opts.AxiomOrgID != "" { clientOpts = append(clientOpts, axiom.SetOrganizationID(opts.AxiomOrgID)) }
    c, err := axiom.NewClient(clientOpts...)
    if err != nil { return nil, err }

    every := opts.AxiomFlush
    if every <= 0 { every = 10 * time.Second }
    s := &axiomShipper{client: c, dataset: dataset, events: make(chan axiom.Event, shipBuffer), done: make(chan struct{})}
    s.wg.Add(1)
    go s.run(every)
    return s, nil
}

func (s *axiomShipper) enqueue(ev axiom.Event) {
    select {
    case s.events <- ev:
    default:
    }
}

func (s *axiomShipper) run(every time.Duration) {
    defer s.wg.Done()
    ticker := time.NewTicker(every)
    defer ticker.Stop()
    batch := make([]axiom.Event, 0, shipBatch)
    flush := func() {
        if len(batch) == 0 { return }
        ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
        _, _ = s.client.IngestEvents(ctx, s.dataset, batch)
        cancel()
        batch = batch[:0]
    }
    for {
        select {
        case <-s.done:
            for {
                select {
                case ev := <-s.events:
                    batch = append(batch, ev)
                default:
                    flush()
                    return
                }
            }
        case <-ticker.C:
            flush()
        case ev := <-s.events:
            batch = append(batch, ev)
            if len(batch) >= shipBatch { flush() }
        }
    }
}

func (s *axiomShipper) close() {
    s.once.Do(func() { close(s.done) })
    s.wg.Wait()
}
