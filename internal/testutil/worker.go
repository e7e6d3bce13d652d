package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/demindx/reportpipe/core"
)

// StubWorker is a function-backed core.Worker that tracks how many
// executions overlap, letting tests assert concurrency bounds.
type StubWorker struct {
	// ExecuteFn produces the subtask output; defaults to echoing the instruction.
	ExecuteFn func(ctx context.Context, sub core.Subtask) (string, error)

	inFlight atomic.Int64
	peak     atomic.Int64
}

// Execute implements core.Worker.
func (w *StubWorker) Execute(ctx context.Context, sub core.Subtask) (string, error) {
	cur := w.inFlight.Add(1)
	for {
		peak := w.peak.Load()
		if cur <= peak || w.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	defer w.inFlight.Add(-1)

	if w.ExecuteFn == nil {
		return sub.Instruction, nil
	}
	return w.ExecuteFn(ctx, sub)
}

// PeakInFlight returns the maximum number of overlapping executions observed.
func (w *StubWorker) PeakInFlight() int64 { return w.peak.Load() }

// StubRetriever is a scripted core.Retriever.
type StubRetriever struct {
	Results []core.SearchResult
	Err     error

	mu      sync.Mutex
	queries []string
}

// Search implements core.Retriever.
func (r *StubRetriever) Search(_ context.Context, query string) ([]core.SearchResult, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Results, nil
}

// Queries returns a snapshot of all search queries received.
func (r *StubRetriever) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.queries))
	copy(out, r.queries)
	return out
}
