package pipeline

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned by Run while another run holds the Runner.
var ErrRunInProgress = errors.New("pipeline: a run is already in progress")

// Phase names one step of a run.
type Phase string

const (
	PhaseExtract  Phase = "extract"
	PhaseValidate Phase = "validate"
	PhaseContract Phase = "contract"
	PhaseBackend  Phase = "backend"
	PhaseFrontend Phase = "frontend"
	PhaseManifest Phase = "manifest"
)

// PhaseError wraps the failure that aborted a run. Files written by earlier
// phases stay on disk.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

func fail(phase Phase, err error) error {
	return &PhaseError{Phase: phase, Err: err}
}
