package core

import "github.com/google/uuid"

// Request is the user-supplied input of one pipeline run. It is immutable
// once accepted: the pipeline never mutates it and passes copies by value.
type Request struct {
	// Query is the raw request text to decompose and answer.
	Query string `json:"query"`
	// Locale optionally pins the output locale of the final report. When
	// empty the planner determines it (or falls back to its default).
	Locale string `json:"locale,omitempty"`
}

// Subtask is one unit of work produced by the planner. The Kind is a free
// grouping label only used for aggregation headings; the Instruction must be
// complete and self-contained so a worker can execute it without any other
// plan context.
type Subtask struct {
	Kind        string `json:"kind"`
	Instruction string `json:"instruction"`
}

// Plan is the ordered decomposition of a request. Subtasks is never empty:
// the planner substitutes a single generic subtask when decomposition fails.
// Order is significant and preserved end-to-end; aggregation relies on plan
// order, not completion order.
type Plan struct {
	Request  Request   `json:"request"`
	Subtasks []Subtask `json:"subtasks"`
	Locale   string    `json:"locale"`
}

// SubtaskResult is the outcome of executing one subtask. Exactly one result
// exists per subtask, keyed by position. A failed execution is recorded
// inline (Err set, Output carrying an error marker) instead of aborting
// sibling subtasks.
type SubtaskResult struct {
	Kind        string `json:"kind"`
	Instruction string `json:"instruction"`
	Output      string `json:"output"`
	Err         string `json:"error,omitempty"`
}

// Failed reports whether this subtask's execution failed.
func (r SubtaskResult) Failed() bool { return r.Err != "" }

// Artifact is the final merged report of one successful run.
type Artifact struct {
	// Content is the synthesized report text.
	Content string `json:"content"`
	// Location is an opaque reference to the persisted artifact (a file
	// path or store URI, depending on the renderer).
	Location string `json:"location"`
}

// NewID generates a new unique identifier for runs and events.
func NewID() string { return uuid.NewString() }
