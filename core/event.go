package core

import (
	"fmt"
	"time"
)

// EventKind classifies a progress event emitted during a pipeline run.
type EventKind string

const (
	// EventRunStarted is emitted when the pipeline accepts a request.
	EventRunStarted EventKind = "run_started"
	// EventPlanReady is emitted after planning with subtask count and locale.
	EventPlanReady EventKind = "plan_ready"
	// EventSubtaskStarted is emitted when a subtask is dispatched to a worker.
	EventSubtaskStarted EventKind = "subtask_started"
	// EventSubtaskFinished is emitted when a subtask produced its result.
	EventSubtaskFinished EventKind = "subtask_finished"
	// EventSynthesisStarted is emitted when aggregation begins.
	EventSynthesisStarted EventKind = "synthesis_started"
	// EventRunDone is emitted with the artifact location on success.
	EventRunDone EventKind = "run_done"
	// EventRunFailed is emitted with a human-readable cause on failure.
	EventRunFailed EventKind = "run_failed"
)

// Event is an ephemeral progress notification for a single run. Events are
// delivered in emission order over a per-run channel and are not persisted;
// the sequence number is implicit in channel order. After emission an Event
// must be treated as immutable.
type Event struct {
	ID           string    `json:"id"`
	RunID        string    `json:"run_id"`
	Kind         EventKind `json:"kind"`
	Message      string    `json:"message"`
	SubtaskKind  string    `json:"subtask_kind,omitempty"`
	Position     int       `json:"position"`
	SubtaskCount int       `json:"subtask_count"`
	Locale       string    `json:"locale,omitempty"`
	Location     string    `json:"location,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewEvent creates a bare event of the given kind bound to a run. Prefer the
// helper constructors for the standard pipeline transitions.
func NewEvent(runID string, kind EventKind) Event {
	return Event{
		ID:        NewID(),
		RunID:     runID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunStartedEvent records that a request was received.
func NewRunStartedEvent(runID string) Event {
	e := NewEvent(runID, EventRunStarted)
	e.Message = "request received"
	return e
}

// NewPlanReadyEvent summarizes the completed plan (subtask count + locale).
func NewPlanReadyEvent(runID string, count int, locale string) Event {
	e := NewEvent(runID, EventPlanReady)
	e.SubtaskCount = count
	e.Locale = locale
	e.Message = fmt.Sprintf("plan ready: %d subtask(s), locale %s", count, locale)
	return e
}

// NewSubtaskStartedEvent records dispatch of the subtask at the given
// position in the plan.
func NewSubtaskStartedEvent(runID, kind string, position int) Event {
	e := NewEvent(runID, EventSubtaskStarted)
	e.SubtaskKind = kind
	e.Position = position
	e.Message = fmt.Sprintf("subtask %d (%s) started", position, kind)
	return e
}

// NewSubtaskFinishedEvent records completion of the subtask at the given
// position. A failed subtask is reported here but does not fail the run.
func NewSubtaskFinishedEvent(runID, kind string, position int, failed bool) Event {
	e := NewEvent(runID, EventSubtaskFinished)
	e.SubtaskKind = kind
	e.Position = position
	if failed {
		e.Message = fmt.Sprintf("subtask %d (%s) failed", position, kind)
	} else {
		e.Message = fmt.Sprintf("subtask %d (%s) finished", position, kind)
	}
	return e
}

// NewSynthesisStartedEvent records the start of result aggregation.
func NewSynthesisStartedEvent(runID string) Event {
	e := NewEvent(runID, EventSynthesisStarted)
	e.Message = "synthesis started"
	return e
}

// NewRunDoneEvent records successful completion with the artifact location.
func NewRunDoneEvent(runID, location string) Event {
	e := NewEvent(runID, EventRunDone)
	e.Location = location
	e.Message = fmt.Sprintf("run done: %s", location)
	return e
}

// NewRunFailedEvent records terminal failure with a human-readable cause.
func NewRunFailedEvent(runID string, err error) Event {
	e := NewEvent(runID, EventRunFailed)
	e.Message = fmt.Sprintf("run failed: %v", err)
	return e
}
