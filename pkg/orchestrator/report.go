package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/uvm/pkg/installer"
	"github.com/matzehuels/uvm/pkg/manifest"
	"github.com/matzehuels/uvm/pkg/version"
)

// Result is the outcome of one task.
type Result struct {
	ID       manifest.ComponentID
	Selected bool
	State    installer.State
	Err      error
	Duration time.Duration
}

// Report summarizes a run.
type Report struct {
	RunID       string
	Version     version.Version
	Destination string
	// AlreadyInstalled lists requested modules, and the modules they
	// depend on, that were installed before the run.
	AlreadyInstalled []manifest.ComponentID
	// Tasks holds one result per scheduled module in schedule order.
	Tasks []Result
	// RecordErr is set when the installation record could not be written.
	RecordErr error
}

// Installed returns the modules installed by this run.
func (r *Report) Installed() []manifest.ComponentID {
	var out []manifest.ComponentID
	for _, t := range r.Tasks {
		if t.Err == nil {
			out = append(out, t.ID)
		}
	}
	return out
}

// Failed returns the results of the tasks that failed.
func (r *Report) Failed() []Result {
	var out []Result
	for _, t := range r.Tasks {
		if t.Err != nil {
			out = append(out, t)
		}
	}
	return out
}

// TaskError is the failure of one component.
type TaskError struct {
	Component manifest.ComponentID
	Err       error
}

func (e *TaskError) Error() string { return fmt.Sprintf("%s: %v", e.Component, e.Err) }

func (e *TaskError) Unwrap() error { return e.Err }

// RunError aggregates every failed task of a run.
type RunError struct {
	Failures []*TaskError
}

func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d module(s) failed to install", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("\n  ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// Unwrap exposes each task failure to errors.Is and errors.As.
func (e *RunError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Components returns the failed component ids.
func (e *RunError) Components() []manifest.ComponentID {
	ids := make([]manifest.ComponentID, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.Component
	}
	return ids
}
