package core

import "time"

// RunStatus describes the lifecycle state of a queued pipeline run.
type RunStatus string

const (
	// StatusPending marks a run accepted by the queue but not yet dequeued.
	StatusPending RunStatus = "PENDING"
	// StatusRunning marks a run currently executed by a queue runner.
	StatusRunning RunStatus = "RUNNING"
	// StatusDone marks a run that completed with an artifact.
	StatusDone RunStatus = "DONE"
	// StatusError marks a run that failed; the record carries the cause.
	StatusError RunStatus = "ERROR"
	// StatusNotFound is returned for unknown run identifiers. It is a
	// defined status value, not an error condition.
	StatusNotFound RunStatus = "NOT_FOUND"
)

// Terminal reports whether the status is final (DONE or ERROR).
func (s RunStatus) Terminal() bool { return s == StatusDone || s == StatusError }

// RunRecord tracks one queued run. Records transition strictly
// PENDING→RUNNING→{DONE,ERROR} and are mutated by exactly one queue runner;
// callers only read snapshots by identifier.
type RunRecord struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	Artifact    *Artifact  `json:"artifact,omitempty"`
	Err         string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}
