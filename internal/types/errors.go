package types

import (
	"errors"
	"fmt"
)

// ErrCollaboratorUnavailable is matched by every CollaboratorUnavailableError.
var ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

// ProfilingError reports a corpus scan problem. It is always recoverable:
// the profiler applies defaults and keeps going.
type ProfilingError struct {
	Signal string
	Err    error
}

func (e *ProfilingError) Error() string {
	return fmt.Sprintf("profiling %s: %v", e.Signal, e.Err)
}

func (e *ProfilingError) Unwrap() error { return e.Err }

// PlanningError means no viable stage set exists. It aborts a run before any
// stage executes.
type PlanningError struct {
	Reason string
	Err    error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Reason, e.Err)
	}
	return "planning failed: " + e.Reason
}

func (e *PlanningError) Unwrap() error { return e.Err }

// StageExecutionError identifies the stage that aborted a run.
type StageExecutionError struct {
	Stage StageID
	Index int // 1-based step within the strategy
	Total int
	Err   error
}

func (e *StageExecutionError) Error() string {
	return fmt.Sprintf("stage %s (step %d/%d) failed: %v", e.Stage, e.Index, e.Total, e.Err)
}

func (e *StageExecutionError) Unwrap() error { return e.Err }

// CollaboratorUnavailableError names a missing collaborator capability.
type CollaboratorUnavailableError struct {
	Capability string
}

func (e *CollaboratorUnavailableError) Error() string {
	return fmt.Sprintf("collaborator capability %q unavailable", e.Capability)
}

func (e *CollaboratorUnavailableError) Is(target error) bool {
	return target == ErrCollaboratorUnavailable
}

// Unavailable is shorthand for a CollaboratorUnavailableError.
func Unavailable(capability string) error {
	return &CollaboratorUnavailableError{Capability: capability}
}
