package session

import (
	"errors"
	"fmt"

	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/selection"
)

// SplitPhase is the state of the page-selection workflow.
type SplitPhase string

const (
	SplitEmpty     SplitPhase = "empty"
	SplitLoaded    SplitPhase = "loaded"
	SplitSelecting SplitPhase = "selecting"
	SplitProduced  SplitPhase = "produced"
)

// SplitState is one split tool instance. Output is set only when Produced.
type SplitState struct {
	Phase     SplitPhase
	File      string
	Selection selection.Selection
	Output    []byte
	Err       error
}

// PageCount returns the loaded document's page count, 0 when Empty.
func (s SplitState) PageCount() int { return s.Selection.PageCount() }

// CanProduce reports whether the produce control is enabled.
func CanProduce(s SplitState) bool {
	return s.Phase == SplitSelecting && !s.Selection.Empty()
}

// Split actions.
type (
	// FileLoaded: a new file parsed with PageCount pages.
	FileLoaded struct {
		File      string
		PageCount int
	}
	// FileRejected: a new file failed to parse.
	FileRejected struct {
		File string
		Err  error
	}
	// TogglePage flips one page in or out of the selection.
	TogglePage struct{ Page int }
	// Produced: the assembler returned output bytes.
	Produced struct{ Output []byte }
	// ProduceFailed: the assembler failed.
	ProduceFailed struct{ Err error }
)

func (FileLoaded) isAction()    {}
func (FileRejected) isAction()  {}
func (TogglePage) isAction()    {}
func (Produced) isAction()      {}
func (ProduceFailed) isAction() {}

// ReduceSplit applies a to s without mutating s.
func ReduceSplit(s SplitState, a Action) (SplitState, error) {
	switch a := a.(type) {
	case FileLoaded:
		// valid from any phase; previous selection and output are discarded
		return SplitState{Phase: SplitLoaded, File: a.File, Selection: selection.New(a.PageCount)}, nil

	case FileRejected:
		return SplitState{Phase: SplitEmpty, File: a.File, Err: a.Err}, nil

	case TogglePage:
		if s.Phase != SplitLoaded && s.Phase != SplitSelecting {
			return s, docerr.Invalid("cannot select pages while %s", s.Phase)
		}
		sel, err := s.Selection.Toggle(a.Page)
		if err != nil {
			return s, err
		}
		next := SplitState{Phase: SplitSelecting, File: s.File, Selection: sel}
		if sel.Empty() {
			next.Phase = SplitLoaded
		}
		return next, nil

	case Produced:
		if !CanProduce(s) {
			return s, fmt.Errorf("produced in phase %s", s.Phase)
		}
		next := s
		next.Phase = SplitProduced
		next.Output = a.Output
		next.Err = nil
		return next, nil

	case ProduceFailed:
		if !CanProduce(s) {
			return s, fmt.Errorf("produce failed in phase %s", s.Phase)
		}
		next := s
		next.Err = a.Err
		return next, nil

	case Reset:
		if s.Phase == SplitEmpty {
			return SplitState{Phase: SplitEmpty}, nil
		}
		return SplitState{Phase: SplitLoaded, File: s.File, Selection: selection.New(s.PageCount())}, nil
	}
	return s, errors.New("unknown split action")
}
