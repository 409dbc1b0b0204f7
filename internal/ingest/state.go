package ingest

import "sync"

// State is the observable phase of an ingestion run.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateUpserting   State = "upserting"
	StateFailed      State = "failed"
)

// RunState tracks the current phase of a job so operators can see
// where a run is stuck. A failed run stays failed until the next run
// starts fetching.
type RunState struct {
	mu      sync.RWMutex
	current State
}

// NewRunState starts in the idle phase.
func NewRunState() *RunState {
	return &RunState{current: StateIdle}
}

// Set moves the state machine to next.
func (r *RunState) Set(next State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = next
}

// Get returns the current phase.
func (r *RunState) Get() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
