package filetype

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// MIME types the tools read or produce.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
	MIMEZIP  = "application/zip"
)

// Kind is the coarse document family a file belongs to.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindPNG     Kind = "png"
	KindJPEG    Kind = "jpeg"
	KindImage   Kind = "image" // any other raster format
	KindUnknown Kind = "unknown"
)

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Kind        Kind
	Description string
}

// IsImage reports whether the file is any raster image.
func (i *FileTypeInfo) IsImage() bool {
	return i.Kind == KindPNG || i.Kind == KindJPEG || i.Kind == KindImage
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect sniffs data by magic bytes. The name only disambiguates ZIP-based
// office containers, which share the ZIP signature.
func (d *Detector) Detect(name string, data []byte) *FileTypeInfo {
	mtype := mimetype.Detect(data)
	mimeType := mtype.String()
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	extension := mtype.Extension()

	log.Debug().Str("mime", mimeType).Str("ext", extension).Str("file", name).Msg("detected file type")

	if mimeType == MIMEZIP || strings.Contains(mimeType, "application/x-zip") {
		if strings.ToLower(filepath.Ext(name)) == ".docx" {
			log.Debug().Str("original", mtype.String()).Msg("treating ZIP container as DOCX")
			mimeType = MIMEDOCX
			extension = ".docx"
		}
	}

	info := &FileTypeInfo{MIMEType: mimeType, Extension: extension}
	d.classify(info)
	return info
}

// classify maps the MIME type onto a Kind.
func (d *Detector) classify(info *FileTypeInfo) {
	switch mimeType := info.MIMEType; {
	case mimeType == MIMEPDF:
		info.Kind = KindPDF
		info.Description = "PDF document"
	case mimeType == MIMEDOCX:
		info.Kind = KindDOCX
		info.Description = "Microsoft Word document"
	case mimeType == MIMEPNG:
		info.Kind = KindPNG
		info.Description = "PNG image"
	case mimeType == MIMEJPEG:
		info.Kind = KindJPEG
		info.Description = "JPEG image"
	case strings.HasPrefix(mimeType, "image/"):
		info.Kind = KindImage
		info.Description = "Image file"
	default:
		info.Kind = KindUnknown
		info.Description = fmt.Sprintf("Unsupported file type: %s", mimeType)
	}
}

// Accepts reports whether name or info matches an accept filter made of
// extensions (".pdf") and MIME types ("image/*"). An empty filter accepts all.
func Accepts(filter []string, name string, info *FileTypeInfo) bool {
	if len(filter) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, f := range filter {
		f = strings.ToLower(strings.TrimSpace(f))
		switch {
		case strings.HasPrefix(f, "."):
			if f == ext {
				return true
			}
		case strings.HasSuffix(f, "/*"):
			if info != nil && strings.HasPrefix(info.MIMEType, strings.TrimSuffix(f, "*")) {
				return true
			}
		case info != nil && f == info.MIMEType:
			return true
		}
	}
	return false
}
