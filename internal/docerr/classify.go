package docerr

import "errors"

// Kind is the coarse failure class reported to callers.
type Kind string

const (
	KindNone        Kind = ""
	KindParse       Kind = "parse_error"
	KindUnsupported Kind = "unsupported_content"
	KindEncoding    Kind = "encoding_error"
	KindValidation  Kind = "validation_error"
	KindBusy        Kind = "busy"
	KindInternal    Kind = "internal_error"
)

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrBusy) {
		return KindBusy
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return KindValidation
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return KindParse
	}

	var unsupportedErr *UnsupportedError
	if errors.As(err, &unsupportedErr) {
		return KindUnsupported
	}

	var encErr *EncodingError
	if errors.As(err, &encErr) {
		return KindEncoding
	}
	return KindInternal
}

// IsParse reports whether err is a ParseError.
func IsParse(err error) bool { return KindOf(err) == KindParse }

// IsUnsupported reports whether err is an UnsupportedError.
func IsUnsupported(err error) bool { return KindOf(err) == KindUnsupported }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }
