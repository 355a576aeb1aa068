package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Location is a parsed destination or source reference.
type Location struct {
	Scheme string // "file", "s3", "http" or "https"
	Bucket string
	Key    string
	Path   string
	URL    string
}

// ParseLocation understands s3://bucket/key, http(s):// URLs and local paths.
func ParseLocation(ref string) (Location, error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		rest := strings.TrimPrefix(ref, "s3://")
		slash := strings.Index(rest, "/")
		if slash <= 0 {
			if rest == "" {
				return Location{}, fmt.Errorf("invalid s3 url: %s", ref)
			}
			return Location{Scheme: "s3", Bucket: rest}, nil
		}
		return Location{Scheme: "s3", Bucket: rest[:slash], Key: rest[slash+1:]}, nil
	case strings.HasPrefix(ref, "http://"):
		return Location{Scheme: "http", URL: ref}, nil
	case strings.HasPrefix(ref, "https://"):
		return Location{Scheme: "https", URL: ref}, nil
	case ref == "":
		return Location{}, fmt.Errorf("empty location")
	}
	return Location{Scheme: "file", Path: ref}, nil
}

// Sink writes artifacts to locations.
type Sink struct {
	mu      sync.Mutex
	s3      *S3
	newS3   func(context.Context) (*S3, error)
	httpCli *http.Client
}

// NewSink returns a sink. newS3 is called lazily the first time an s3://
// location is used; nil disables S3.
func NewSink(newS3 func(context.Context) (*S3, error)) *Sink {
	return &Sink{newS3: newS3, httpCli: &http.Client{Timeout: 60 * time.Second}}
}

func (k *Sink) s3Client(ctx context.Context) (*S3, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.s3 != nil {
		return k.s3, nil
	}
	if k.newS3 == nil {
		return nil, fmt.Errorf("s3 is not configured")
	}
	c, err := k.newS3(ctx)
	if err != nil {
		return nil, err
	}
	k.s3 = c
	return c, nil
}

// Write stores a at ref and returns where it ended up. A local ref that is
// an existing directory, or ends in a separator, receives a.Filename.
func (k *Sink) Write(ctx context.Context, ref string, a Artifact) (string, error) {
	loc, err := ParseLocation(ref)
	if err != nil {
		return "", err
	}
	switch loc.Scheme {
	case "s3":
		c, err := k.s3Client(ctx)
		if err != nil {
			return "", err
		}
		key := loc.Key
		if key == "" || strings.HasSuffix(key, "/") {
			key += a.Filename
		}
		return c.Upload(ctx, loc.Bucket, key, a)
	case "file":
		path := loc.Path
		if strings.HasSuffix(path, string(os.PathSeparator)) {
			path = filepath.Join(path, a.Filename)
		} else if st, err := os.Stat(path); err == nil && st.IsDir() {
			path = filepath.Join(path, a.Filename)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("cannot write to %s", ref)
}

// Fetch reads an input from a local path, an s3:// object or an http(s) URL
// and returns its name and bytes.
func (k *Sink) Fetch(ctx context.Context, ref string) (string, []byte, error) {
	loc, err := ParseLocation(ref)
	if err != nil {
		return "", nil, err
	}
	switch loc.Scheme {
	case "s3":
		c, err := k.s3Client(ctx)
		if err != nil {
			return "", nil, err
		}
		return c.Download(ctx, loc.Bucket, loc.Key)
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.URL, nil)
		if err != nil {
			return "", nil, err
		}
		resp, err := k.httpCli.Do(req)
		if err != nil {
			return "", nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", nil, fmt.Errorf("fetch %s: http %d", loc.URL, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", nil, err
		}
		name := loc.URL
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		if i := strings.IndexAny(name, "?#"); i >= 0 {
			name = name[:i]
		}
		return name, data, nil
	}
	data, err := os.ReadFile(loc.Path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", loc.Path, err)
	}
	return filepath.Base(loc.Path), data, nil
}
