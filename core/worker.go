package core

import "context"

// Worker turns one subtask instruction into an output string. The executor
// invokes a single Worker concurrently for sibling subtasks, so
// implementations must be safe for concurrent use. A Worker should return an
// error only for its own subtask; it never sees or affects siblings.
type Worker interface {
	Execute(ctx context.Context, sub Subtask) (string, error)
}
