package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	cases := []struct {
		ref  string
		want Location
	}{
		{"s3://bucket/dir/out.pdf", Location{Scheme: "s3", Bucket: "bucket", Key: "dir/out.pdf"}},
		{"s3://bucket", Location{Scheme: "s3", Bucket: "bucket"}},
		{"https://example.com/a.pdf", Location{Scheme: "https", URL: "https://example.com/a.pdf"}},
		{"out/merged.pdf", Location{Scheme: "file", Path: "out/merged.pdf"}},
	}
	for _, tc := range cases {
		got, err := ParseLocation(tc.ref)
		require.NoError(t, err, tc.ref)
		assert.Equal(t, tc.want, got, tc.ref)
	}

	_, err := ParseLocation("s3://")
	assert.Error(t, err)
	_, err = ParseLocation("")
	assert.Error(t, err)
}

func TestSinkWriteFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewSink(nil)
	a := Artifact{Filename: "merged.pdf", Data: []byte("%PDF-1.7")}

	got, err := sink.Write(context.Background(), filepath.Join(dir, "nested", "x.pdf"), a)
	require.NoError(t, err)
	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, a.Data, data)

	got, err = sink.Write(context.Background(), dir, a)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "merged.pdf"), got)
}

func TestSinkS3NotConfigured(t *testing.T) {
	_, err := NewSink(nil).Write(context.Background(), "s3://bucket/key.pdf", Artifact{})
	assert.ErrorContains(t, err, "not configured")
}

func TestSinkFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/docs/report.pdf" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("%PDF-remote"))
	}))
	defer srv.Close()
	sink := NewSink(nil)

	name, data, err := sink.Fetch(context.Background(), srv.URL+"/docs/report.pdf?sig=1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", name)
	assert.Equal(t, []byte("%PDF-remote"), data)

	_, _, err = sink.Fetch(context.Background(), srv.URL+"/missing.pdf")
	assert.ErrorContains(t, err, "http 404")

	local := filepath.Join(t.TempDir(), "in.pdf")
	require.NoError(t, os.WriteFile(local, []byte("local"), 0o644))
	name, data, err = sink.Fetch(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, "in.pdf", name)
	assert.Equal(t, []byte("local"), data)
}
