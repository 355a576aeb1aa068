package statuscheck

import (
    "context"
    "errors"
    "os/exec"
    "time"
)

// Pinger models the minimal store capability we need for status checks.
type Pinger interface {
    Ping(ctx context.Context) error
}

// BucketChecker is satisfied by the S3 delivery client.
type BucketChecker interface {
    HeadBucket(ctx context.Context) error
}

// Checker aggregates health checks for the dependencies shown on the dashboard.
type Checker struct {
    store      Pinger
    storeKind  string
    s3         BucketChecker
    loEnabled  bool
    loBinary   string
    lookPath   func(string) (string, error)
}

// Options configures the Checker.
type Options struct {
    Store       Pinger
    StoreKind   string
    S3          BucketChecker
    LibreOffice bool
    LOBinary    string
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the dashboard.
type Summary struct {
    Store       Status `json:"store"`
    S3          Status `json:"s3"`
    LibreOffice Status `json:"libreoffice"`
    MuPDF       Status `json:"mupdf"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    bin := opts.LOBinary
    if bin == "" { bin = "libreoffice" }
    return &Checker{
        store:     opts.Store,
        storeKind: opts.StoreKind,
        s3:        opts.S3,
        loEnabled: opts.LibreOffice,
        loBinary:  bin,
        lookPath:  exec.LookPath,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Store:       c.checkStore(ctx),
        S3:          c.checkS3(ctx),
        LibreOffice: c.checkLibreOffice(),
        MuPDF:       Status{OK: true, Message: "Embedded"},
    }
}

func (c *Checker) checkStore(ctx context.Context) Status {
    if c.store == nil {
        return Status{OK: false, Message: "store unavailable"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.store.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    if c.storeKind == "redis" {
        return Status{OK: true, Message: "Connected"}
    }
    return Status{OK: true, Message: "In memory"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.s3 == nil {
        return Status{OK: false, Message: "Bucket not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := c.s3.HeadBucket(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkLibreOffice() Status {
    if !c.loEnabled {
        return Status{OK: false, Message: "Disabled"}
    }
    if _, err := c.lookPath(c.loBinary); err != nil {
        return Status{OK: false, Message: "Binary not found"}
    }
    return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}
