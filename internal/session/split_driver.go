package session

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/local/doctools/internal/assemble"
	"github.com/local/doctools/internal/docerr"
	"github.com/local/doctools/internal/pdfdoc"
)

// SplitSession drives ReduceSplit: it parses files and runs the assembler.
type SplitSession struct {
	mu    sync.Mutex
	busy  bool
	state SplitState
	doc   *pdfdoc.Document
}

// NewSplitSession returns an Empty session.
func NewSplitSession() *SplitSession {
	return &SplitSession{state: SplitState{Phase: SplitEmpty}}
}

// State returns a snapshot.
func (s *SplitSession) State() SplitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SplitSession) apply(a Action) (SplitState, error) {
	next, err := ReduceSplit(s.state, a)
	if err != nil {
		return s.state, err
	}
	s.state = next
	return next, nil
}

// Load parses a new file, discarding any previous selection and output.
func (s *SplitSession) Load(name string, data []byte) (SplitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.state, docerr.ErrBusy
	}
	doc, err := pdfdoc.Load(name, data)
	if err != nil {
		s.doc = nil
		state, _ := s.apply(FileRejected{File: name, Err: err})
		return state, err
	}
	s.doc = doc
	return s.apply(FileLoaded{File: name, PageCount: doc.PageCount()})
}

// Toggle flips one page.
func (s *SplitSession) Toggle(page int) (SplitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.state, docerr.ErrBusy
	}
	return s.apply(TogglePage{Page: page})
}

// Reset clears the selection and output but keeps the loaded file.
func (s *SplitSession) Reset() (SplitState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return s.state, docerr.ErrBusy
	}
	return s.apply(Reset{})
}

// Produce assembles the selected pages. It blocks until done; a concurrent
// call gets docerr.ErrBusy.
func (s *SplitSession) Produce() (SplitState, error) {
	s.mu.Lock()
	if s.busy {
		state := s.state
		s.mu.Unlock()
		return state, docerr.ErrBusy
	}
	if !CanProduce(s.state) {
		state := s.state
		s.mu.Unlock()
		return state, docerr.Invalid("select at least one page")
	}
	s.busy = true
	doc, sel := s.doc, s.state.Selection
	s.mu.Unlock()

	out, err := assemble.Split(doc, sel)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		log.Warn().Err(err).Str("file", doc.Name).Msg("split failed")
		state, _ := s.apply(ProduceFailed{Err: err})
		return state, err
	}
	log.Info().Str("file", doc.Name).Ints("pages", sel.Pages()).Int("bytes_out", len(out)).Msg("split produced")
	return s.apply(Produced{Output: out})
}
