package session

import "sync"

// Tool is a concurrency-safe tool instance. At most one operation is in
// flight; a second Run while Processing fails with docerr.ErrBusy.
type Tool struct {
	mu    sync.Mutex
	state ToolState
}

// NewTool returns an idle tool instance.
func NewTool(name string, minFiles int) *Tool {
	return &Tool{state: NewToolState(name, minFiles)}
}

// State returns a snapshot.
func (t *Tool) State() ToolState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Dispatch applies one action.
func (t *Tool) Dispatch(a Action) (ToolState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, err := Reduce(t.state, a)
	if err != nil {
		return t.state, err
	}
	t.state = next
	return next, nil
}

// Run loads names, starts processing and runs op without holding the lock.
// describe turns op's error into the message shown to the user.
func (t *Tool) Run(names []string, op func() (string, error), describe func(error) string) (ToolState, error) {
	t.mu.Lock()
	next, err := Reduce(t.state, LoadFiles{Names: names})
	if err == nil {
		next, err = Reduce(next, Start{})
		if err != nil && next.Phase == Loaded {
			// keep the newly chosen files visible even though Start was refused
			t.state = next
		}
	}
	if err != nil {
		state := t.state
		t.mu.Unlock()
		return state, err
	}
	t.state = next
	t.mu.Unlock()

	result, opErr := op()

	t.mu.Lock()
	defer t.mu.Unlock()
	if opErr != nil {
		msg := ""
		if describe != nil {
			msg = describe(opErr)
		}
		t.state, _ = Reduce(t.state, Fail{Err: opErr, Message: msg})
		return t.state, opErr
	}
	t.state, _ = Reduce(t.state, Finish{Result: result})
	return t.state, nil
}
