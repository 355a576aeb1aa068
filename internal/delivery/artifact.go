// Package delivery holds produced documents until they are downloaded and
// writes them to local or S3 destinations.
package delivery

import (
    "context"
    "errors"
    "time"
)

// Content types of the artifacts the tools produce.
const (
    ContentTypePDF  = "application/pdf"
    ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
    ContentTypeJPEG = "image/jpeg"
    ContentTypeZIP  = "application/zip"
)

// Artifact is one downloadable result.
type Artifact struct {
    Filename    string            `json:"filename"`
    ContentType string            `json:"content_type"`
    Data        []byte            `json:"-"`
    Meta        map[string]string `json:"meta,omitempty"`
    Created     time.Time         `json:"created"`
}

// Size returns the payload length.
func (a Artifact) Size() int { return len(a.Data) }

// ErrNotFound is returned for unknown or expired artifact IDs.
var ErrNotFound = errors.New("artifact not found")

// Store registers artifacts under an opaque ID, the way a browser hands out
// an object URL. Deleting revokes the ID.
type Store interface {
    Put(ctx context.Context, a Artifact) (string, error)
    Get(ctx context.Context, id string) (Artifact, error)
    Delete(ctx context.Context, id string) error
    Ping(ctx context.Context) error
    Close() error
}
