package toolkit

import (
	"errors"
	"fmt"

	"github.com/local/doctools/internal/docerr"
)

// Failure is the single error a tool operation reports.
type Failure struct {
	Tool    Tool
	Kind    docerr.Kind
	Message string
	Err     error
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %s", f.Tool, f.Message) }
func (f *Failure) Unwrap() error { return f.Err }

// Describe returns the message shown to the user when tool fails with err.
func Describe(tool Tool, err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	spec, _ := Lookup(string(tool))
	switch docerr.KindOf(err) {
	case docerr.KindNone:
		return ""
	case docerr.KindValidation:
		var v *docerr.ValidationError
		if errors.As(err, &v) {
			return v.Message
		}
	case docerr.KindBusy:
		return msgBusy
	case docerr.KindParse:
		if tool == Split {
			return msgSplitLoad
		}
	case docerr.KindUnsupported:
		if tool == PDFToWord {
			return msgPDFToWordNoText
		}
	}
	return spec.Message
}

func fail(tool Tool, err error) *Failure {
	return &Failure{Tool: tool, Kind: docerr.KindOf(err), Message: Describe(tool, err), Err: err}
}
