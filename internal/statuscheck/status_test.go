package statuscheck

import (
    "context"
    "errors"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type bucketFunc func(context.Context) error

func (f bucketFunc) HeadBucket(ctx context.Context) error { return f(ctx) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }

func TestSummary(t *testing.T) {
    c := New(Options{
        Store:       pingFunc(func(context.Context) error { return nil }),
        StoreKind:   "redis",
        S3:          bucketFunc(func(context.Context) error { return errors.New("access denied") }),
        LibreOffice: true,
        LOBinary:    "soffice",
    })
    c.lookPath = func(string) (string, error) { return "/usr/bin/soffice", nil }

    s := c.Summary(context.Background())
    assert.Equal(t, Status{OK: true, Message: "Connected"}, s.Store)
    assert.Equal(t, Status{OK: false, Message: "access denied"}, s.S3)
    assert.True(t, s.LibreOffice.OK)
    assert.True(t, s.MuPDF.OK)
}

func TestSummaryUnconfigured(t *testing.T) {
    s := New(Options{}).Summary(context.Background())
    assert.False(t, s.Store.OK)
    assert.Equal(t, "Bucket not configured", s.S3.Message)
    assert.Equal(t, "Disabled", s.LibreOffice.Message)
}

func TestLibreOfficeMissing(t *testing.T) {
    c := New(Options{LibreOffice: true})
    c.lookPath = func(string) (string, error) { return "", errors.New("not found") }
    assert.Equal(t, "Binary not found", c.checkLibreOffice().Message)
}

func TestTrimError(t *testing.T) {
    assert.Equal(t, "timeout", trimError(timeoutErr{}))
    assert.Len(t, trimError(errors.New(strings.Repeat("x", 500))), 120)
    assert.Equal(t, "", trimError(nil))
}
