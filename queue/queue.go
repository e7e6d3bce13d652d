// Package queue executes pipeline runs asynchronously with a fixed pool of
// background runners and exposes per-run status and result lookup.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/logging"
	"github.com/demindx/reportpipe/pipeline"
)

var (
	// ErrNotFound is returned by Result for an unknown run identifier.
	// Status never errors: unknown ids map to core.StatusNotFound.
	ErrNotFound = fmt.Errorf("run not found")
	// ErrNotReady is returned by Result while a run is still pending or running.
	ErrNotReady = fmt.Errorf("run not ready")
	// ErrRunFailed is returned by Result for runs that ended in ERROR; the
	// wrapped message carries the recorded cause.
	ErrRunFailed = fmt.Errorf("run failed")
	// ErrQueueFull is returned by Submit when the pending buffer is at
	// capacity. Submission never blocks on pipeline execution.
	ErrQueueFull = fmt.Errorf("queue full")
)

// Options configures a Queue.
type Options struct {
	// Runners is the fixed number of background workers. Defaults to 3.
	Runners int
	// Capacity bounds the pending submission buffer. Defaults to 64.
	Capacity int
	// Retention caps how many terminal run records are kept; oldest
	// terminal records are evicted first. Pending and running records are
	// never evicted. Defaults to 1024.
	Retention int
	// Logger for queue diagnostics; NoOpLogger if nil.
	Logger logging.Logger
}

type submission struct {
	id  string
	req core.Request
}

// Queue tracks run lifecycle in an in-process record table. Each record has
// exactly one writer (the runner that dequeued it) transitioning it
// PENDING→RUNNING→{DONE,ERROR}; readers take snapshots under a shared lock,
// so status reads are always safe concurrently with a runner's writes.
type Queue struct {
	pipeline  *pipeline.Pipeline
	tasks     chan submission
	runners   int
	retention int
	logger    logging.Logger

	mu      sync.RWMutex
	records map[string]*core.RunRecord
	order   []string // submission order, for retention eviction

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Queue executing runs on the given pipeline. Call Start to
// launch the runner pool.
func New(p *pipeline.Pipeline, optFns ...func(o *Options)) *Queue {
	opts := Options{
		Runners:   3,
		Capacity:  64,
		Retention: 1024,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Queue{
		pipeline:  p,
		tasks:     make(chan submission, opts.Capacity),
		runners:   opts.Runners,
		retention: opts.Retention,
		logger:    opts.Logger,
		records:   make(map[string]*core.RunRecord),
	}
}

// Start launches the runner pool. Runners dequeue pending submissions FIFO
// and execute them to completion until ctx is cancelled or Close is called.
func (q *Queue) Start(ctx context.Context) {
	ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.runners; i++ {
		q.wg.Add(1)
		go q.runLoop(ctx)
	}
	q.logger.Info("queue started", "runners", q.runners)
}

// Close stops the runner pool and waits for in-flight runs to finish their
// current pipeline invocation. Pending submissions stay PENDING.
func (q *Queue) Close() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// Submit accepts a run request and returns its identifier immediately; it
// never blocks on pipeline execution. A full pending buffer yields
// ErrQueueFull and leaves no record behind.
func (q *Queue) Submit(req core.Request) (string, error) {
	id := core.NewID()
	rec := &core.RunRecord{
		ID:          id,
		Status:      core.StatusPending,
		SubmittedAt: time.Now().UTC(),
	}

	q.mu.Lock()
	q.records[id] = rec
	q.order = append(q.order, id)
	q.evictLocked()
	q.mu.Unlock()

	select {
	case q.tasks <- submission{id: id, req: req}:
		q.logger.Debug("run submitted", "run_id", id)
		return id, nil
	default:
		q.mu.Lock()
		delete(q.records, id)
		for i := len(q.order) - 1; i >= 0; i-- {
			if q.order[i] == id {
				q.order = append(q.order[:i], q.order[i+1:]...)
				break
			}
		}
		q.mu.Unlock()
		return "", ErrQueueFull
	}
}

// Status reports the run's lifecycle state. Unknown identifiers yield
// core.StatusNotFound, never an error.
func (q *Queue) Status(id string) core.RunStatus {
	q.mu.RLock()
	defer q.mu.RUnlock()
	rec, ok := q.records[id]
	if !ok {
		return core.StatusNotFound
	}
	return rec.Status
}

// Result returns the run's artifact once it is DONE. It signals ErrNotReady
// while the run is pending or running, ErrRunFailed (with the recorded
// cause) for failed runs and ErrNotFound for unknown identifiers.
func (q *Queue) Result(id string) (core.Artifact, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	rec, ok := q.records[id]
	if !ok {
		return core.Artifact{}, ErrNotFound
	}
	switch rec.Status {
	case core.StatusDone:
		return *rec.Artifact, nil
	case core.StatusError:
		return core.Artifact{}, fmt.Errorf("%w: %s", ErrRunFailed, rec.Err)
	default:
		return core.Artifact{}, ErrNotReady
	}
}

// Record returns a snapshot of the full run record.
func (q *Queue) Record(id string) (core.RunRecord, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	rec, ok := q.records[id]
	if !ok {
		return core.RunRecord{}, false
	}
	return *rec, true
}

func (q *Queue) runLoop(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-q.tasks:
			q.execute(ctx, sub)
		}
	}
}

// execute owns the record from dequeue to its terminal state. The queue does
// not retry or requeue: an error from the pipeline is recorded as-is.
func (q *Queue) execute(ctx context.Context, sub submission) {
	q.transition(sub.id, func(rec *core.RunRecord) {
		now := time.Now().UTC()
		rec.Status = core.StatusRunning
		rec.StartedAt = &now
	})

	art, err := q.pipeline.Execute(ctx, sub.id, sub.req, nil)

	q.transition(sub.id, func(rec *core.RunRecord) {
		now := time.Now().UTC()
		rec.FinishedAt = &now
		if err != nil {
			rec.Status = core.StatusError
			rec.Err = err.Error()
			return
		}
		rec.Status = core.StatusDone
		rec.Artifact = &art
	})

	if err != nil {
		q.logger.Warn("run errored", "run_id", sub.id, "error", err)
	} else {
		q.logger.Info("run done", "run_id", sub.id, "location", art.Location)
	}
}

func (q *Queue) transition(id string, mutate func(*core.RunRecord)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if rec, ok := q.records[id]; ok {
		mutate(rec)
	}
}

// evictLocked drops the oldest terminal records beyond the retention cap.
// Callers must hold q.mu.
func (q *Queue) evictLocked() {
	if q.retention <= 0 || len(q.records) <= q.retention {
		return
	}
	kept := q.order[:0]
	excess := len(q.records) - q.retention
	for _, id := range q.order {
		rec, ok := q.records[id]
		if !ok {
			continue
		}
		if excess > 0 && rec.Status.Terminal() {
			delete(q.records, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	q.order = kept
}
