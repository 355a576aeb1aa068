// Package session models the per-tool interaction state as explicit phases
// and pure reducers. Drivers in this package perform the side effects.
package session

import (
	"errors"
	"fmt"

	"github.com/local/doctools/internal/docerr"
)

// Phase is the lifecycle of one tool instance.
type Phase string

const (
	Idle       Phase = "idle"
	Loaded     Phase = "loaded"
	Processing Phase = "processing"
	Done       Phase = "done"
	Failed     Phase = "failed"
)

// ToolState is the observable state of one tool instance.
type ToolState struct {
	Tool     string      `json:"tool"`
	Phase    Phase       `json:"phase"`
	Files    []string    `json:"files,omitempty"`
	MinFiles int         `json:"min_files"`
	Result   string      `json:"result,omitempty"` // delivery ID of the last output
	Message  string      `json:"message,omitempty"`
	Kind     docerr.Kind `json:"kind,omitempty"`
}

// NewToolState returns an idle tool that needs minFiles inputs to start.
func NewToolState(tool string, minFiles int) ToolState {
	if minFiles < 1 {
		minFiles = 1
	}
	return ToolState{Tool: tool, Phase: Idle, MinFiles: minFiles}
}

// Action is a discrete user or completion event.
type Action interface{ isAction() }

// LoadFiles replaces the chosen inputs.
type LoadFiles struct{ Names []string }

// Start requests processing of the loaded inputs.
type Start struct{}

// Finish records a successful operation.
type Finish struct{ Result string }

// Fail records a failed operation with its user-facing message.
type Fail struct {
	Err     error
	Message string
}

// Reset returns the tool to Idle.
type Reset struct{}

func (LoadFiles) isAction() {}
func (Start) isAction()     {}
func (Finish) isAction()    {}
func (Fail) isAction()      {}
func (Reset) isAction()     {}

// CanStart reports whether Start would be accepted. It is what the start
// control's enabled state is derived from.
func CanStart(s ToolState) bool {
	return s.Phase != Processing && s.Phase != Idle && len(s.Files) >= s.MinFiles
}

// Reduce applies a to s. It never mutates s. A rejected action returns s
// unchanged together with the reason.
func Reduce(s ToolState, a Action) (ToolState, error) {
	switch a := a.(type) {
	case LoadFiles:
		if s.Phase == Processing {
			return s, docerr.ErrBusy
		}
		next := NewToolState(s.Tool, s.MinFiles)
		if len(a.Names) == 0 {
			return next, nil
		}
		next.Phase = Loaded
		next.Files = append([]string(nil), a.Names...)
		return next, nil

	case Start:
		if s.Phase == Processing {
			return s, docerr.ErrBusy
		}
		if len(s.Files) < s.MinFiles {
			if s.MinFiles > 1 {
				return s, docerr.Invalid("choose at least %d files", s.MinFiles)
			}
			return s, docerr.Invalid("choose a file first")
		}
		next := s
		next.Phase = Processing
		next.Result, next.Message, next.Kind = "", "", docerr.KindNone
		return next, nil

	case Finish:
		if s.Phase != Processing {
			return s, fmt.Errorf("finish in phase %s", s.Phase)
		}
		next := s
		next.Phase = Done
		next.Result = a.Result
		return next, nil

	case Fail:
		if s.Phase != Processing {
			return s, fmt.Errorf("fail in phase %s", s.Phase)
		}
		next := s
		next.Phase = Failed
		next.Kind = docerr.KindOf(a.Err)
		next.Message = a.Message
		if next.Message == "" && a.Err != nil {
			next.Message = a.Err.Error()
		}
		return next, nil

	case Reset:
		if s.Phase == Processing {
			return s, docerr.ErrBusy
		}
		return NewToolState(s.Tool, s.MinFiles), nil
	}
	return s, errors.New("unknown action")
}
