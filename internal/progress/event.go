package progress

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind names what happened.
type Kind string

const (
	RunStarted      Kind = "run_started"
	PhaseStarted    Kind = "phase_started"
	PhaseFinished   Kind = "phase_finished"
	ArtifactWritten Kind = "artifact_written"
	RunFinished     Kind = "run_finished"
	RunFailed       Kind = "run_failed"
)

// Event carries the canonical shape of every progress event.
type Event struct {
	ID         string    `json:"id"`
	RunID      string    `json:"runId"`
	Kind       Kind      `json:"kind"`
	Phase      string    `json:"phase,omitempty"`
	Path       string    `json:"path,omitempty"`
	Count      int       `json:"count,omitempty"`
	Summary    string    `json:"summary"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newID() string { return uuid.New().String() }

func newEvent(runID string, kind Kind) Event {
	return Event{ID: newID(), RunID: runID, Kind: kind, OccurredAt: time.Now()}
}

func NewRunStarted(runID, schemaPath string) Event {
	e := newEvent(runID, RunStarted)
	e.Path = schemaPath
	e.Summary = fmt.Sprintf("Generating from %s", schemaPath)
	return e
}

func NewPhaseStarted(runID, phase string) Event {
	e := newEvent(runID, PhaseStarted)
	e.Phase = phase
	e.Summary = fmt.Sprintf("Starting %s", phase)
	return e
}

// NewPhaseFinished reports a phase with the number of files it wrote.
func NewPhaseFinished(runID, phase string, files int) Event {
	e := newEvent(runID, PhaseFinished)
	e.Phase = phase
	e.Count = files
	if files > 0 {
		e.Summary = fmt.Sprintf("Finished %s (%d files)", phase, files)
	} else {
		e.Summary = fmt.Sprintf("Finished %s", phase)
	}
	return e
}

func NewArtifactWritten(runID, phase, path string) Event {
	e := newEvent(runID, ArtifactWritten)
	e.Phase = phase
	e.Path = path
	e.Summary = "Wrote " + path
	return e
}

// NewRunFinished reports success with the output roots written.
func NewRunFinished(runID string, files int, roots []string) Event {
	e := newEvent(runID, RunFinished)
	e.Count = files
	e.Summary = fmt.Sprintf("Generated %d files in %v", files, roots)
	return e
}

func NewRunFailed(runID, phase string, err error) Event {
	e := newEvent(runID, RunFailed)
	e.Phase = phase
	e.Error = err.Error()
	e.Summary = fmt.Sprintf("Failed during %s", phase)
	return e
}
