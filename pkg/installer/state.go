package installer

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/uvm/pkg/manifest"
)

// State is the lifecycle state of one install task.
type State uint8

const (
	Pending State = iota
	Downloading
	Verifying
	Extracting
	Placing
	Done
	Failed
)

var stateNames = [...]string{"pending", "downloading", "verifying", "extracting", "placing", "done", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// Terminal reports whether s is Done or Failed.
func (s State) Terminal() bool { return s == Done || s == Failed }

// CanTransition reports whether a task may move from one state to another.
// States only move forward, a task may fail from any non-terminal state,
// and a cached artifact lets Downloading skip straight to Extracting.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == Failed {
		return true
	}
	switch from {
	case Pending:
		return to == Downloading || to == Extracting
	case Downloading:
		return to == Verifying || to == Extracting
	case Verifying:
		return to == Extracting
	case Extracting:
		return to == Placing
	case Placing:
		return to == Done
	}
	return false
}

// StateObserver is told about every state change of every task.
// Implementations must be safe for concurrent use.
type StateObserver interface {
	TaskState(id manifest.ComponentID, s State)
}

// StateFunc adapts a function to StateObserver.
type StateFunc func(id manifest.ComponentID, s State)

// TaskState calls f.
func (f StateFunc) TaskState(id manifest.ComponentID, s State) { f(id, s) }

// Tracker records the state of each task, rejects backward moves and
// forwards accepted changes to an optional observer.
type Tracker struct {
	mu     sync.Mutex
	states map[manifest.ComponentID]State
	next   StateObserver
	logger *log.Logger
}

// NewTracker returns a Tracker forwarding to next, which may be nil.
func NewTracker(next StateObserver, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{states: map[manifest.ComponentID]State{}, next: next, logger: logger}
}

// TaskState records s for id. The first report for a task must be Pending.
// Illegal transitions are logged and dropped.
func (t *Tracker) TaskState(id manifest.ComponentID, s State) {
	t.mu.Lock()
	cur, seen := t.states[id]
	ok := (!seen && s == Pending) || (seen && CanTransition(cur, s))
	if ok {
		t.states[id] = s
	}
	t.mu.Unlock()

	if !ok {
		t.logger.Debug("ignored task state change", "module", id, "from", cur, "to", s)
		return
	}
	if t.next != nil {
		t.next.TaskState(id, s)
	}
}

// State returns the current state of id and whether it was ever reported.
func (t *Tracker) State(id manifest.ComponentID) (State, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[id]
	return s, ok
}

// Snapshot returns a copy of all recorded states.
func (t *Tracker) Snapshot() map[manifest.ComponentID]State {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[manifest.ComponentID]State, len(t.states))
	for id, s := range t.states {
		out[id] = s
	}
	return out
}
