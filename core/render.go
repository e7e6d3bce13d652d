package core

import "context"

// Renderer persists merged report text as an artifact and returns an opaque
// location reference for it. Rendering failures are fatal to the run, with
// the same handling as synthesis failures.
type Renderer interface {
	Render(ctx context.Context, runID, text string) (string, error)
}
