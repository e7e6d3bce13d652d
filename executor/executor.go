// Package executor runs all subtasks of a plan concurrently with bounded
// parallelism and per-subtask failure isolation.
package executor

import (
	"context"
	"sync"

	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/logging"
	"golang.org/x/sync/semaphore"
)

// ErrorPrefix marks a failed subtask's output so the aggregation stage (and
// the final report) can tell a failed section from an empty one.
const ErrorPrefix = "ERROR: "

// Options configures an Executor.
type Options struct {
	// MaxInFlight bounds concurrent subtask executions. 0 means unbounded.
	MaxInFlight int64
	// Logger for execution diagnostics; NoOpLogger if nil.
	Logger logging.Logger
	// OnSubtaskStart, when set, is called as each subtask is dispatched.
	// Invoked from worker goroutines; must be safe for concurrent use.
	OnSubtaskStart func(position int, sub core.Subtask)
	// OnSubtaskDone, when set, is called as each subtask's result is ready.
	// Invoked from worker goroutines; must be safe for concurrent use.
	OnSubtaskDone func(position int, res core.SubtaskResult)
}

// Executor dispatches subtasks to a Worker capability. Sibling subtasks run
// concurrently and never serialize behind one another (up to MaxInFlight);
// a failure in one subtask is recorded in its own result and does not abort
// the others.
type Executor struct {
	worker      core.Worker
	maxInFlight int64
	logger      logging.Logger
	onStart     func(int, core.Subtask)
	onDone      func(int, core.SubtaskResult)
}

// New creates an Executor dispatching to the given worker.
func New(worker core.Worker, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{
		worker:      worker,
		maxInFlight: opts.MaxInFlight,
		logger:      opts.Logger,
		onStart:     opts.OnSubtaskStart,
		onDone:      opts.OnSubtaskDone,
	}
}

// RunAll executes every subtask and returns exactly one result per subtask,
// indexed by original plan position regardless of completion order. It never
// returns an error: a failed execution is recorded inline in that subtask's
// result (Err set, Output carrying ErrorPrefix). When ctx is cancelled,
// undispatched subtasks are marked failed without invoking the worker and
// in-flight ones are abandoned to the worker's own ctx handling.
func (e *Executor) RunAll(ctx context.Context, subtasks []core.Subtask) []core.SubtaskResult {
	results := make([]core.SubtaskResult, len(subtasks))

	var sem *semaphore.Weighted
	if e.maxInFlight > 0 {
		sem = semaphore.NewWeighted(e.maxInFlight)
	}

	var wg sync.WaitGroup
	for i, sub := range subtasks {
		if err := ctx.Err(); err != nil {
			results[i] = failedResult(sub, err)
			continue
		}
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = failedResult(sub, err)
				continue
			}
		}

		wg.Add(1)
		go func(i int, sub core.Subtask) {
			defer wg.Done()
			if sem != nil {
				defer sem.Release(1)
			}

			if e.onStart != nil {
				e.onStart(i, sub)
			}
			e.logger.Debug("subtask dispatched", "position", i, "kind", sub.Kind)

			output, err := e.worker.Execute(ctx, sub)
			if err != nil {
				e.logger.Warn("subtask failed", "position", i, "kind", sub.Kind, "error", err)
				results[i] = failedResult(sub, err)
			} else {
				results[i] = core.SubtaskResult{
					Kind:        sub.Kind,
					Instruction: sub.Instruction,
					Output:      output,
				}
			}

			if e.onDone != nil {
				e.onDone(i, results[i])
			}
		}(i, sub)
	}
	wg.Wait()

	return results
}

func failedResult(sub core.Subtask, err error) core.SubtaskResult {
	return core.SubtaskResult{
		Kind:        sub.Kind,
		Instruction: sub.Instruction,
		Output:      ErrorPrefix + err.Error(),
		Err:         err.Error(),
	}
}
