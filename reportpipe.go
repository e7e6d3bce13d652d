// Package reportpipe provides a high-level façade over the report pipeline
// (planner → executor → aggregator → renderer) and its job queue. Most
// applications interact with this package by:
//  1. Creating a ReportPipe via New() with a reasoning model (optionally
//     overriding the default in-memory artifact store, renderer or retriever)
//  2. Running a request directly (Run / RunSync) with live progress events
//  3. Or submitting runs to the queue (Submit) and polling Status / Result
//
// All defaults are safe for local development and testing; production setups
// typically supply a filesystem artifact store and a structured logger.
package reportpipe

import (
	"context"
	"sync"

	"github.com/demindx/reportpipe/aggregator"
	"github.com/demindx/reportpipe/artifact"
	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/logging"
	"github.com/demindx/reportpipe/pipeline"
	"github.com/demindx/reportpipe/planner"
	"github.com/demindx/reportpipe/queue"
	"github.com/demindx/reportpipe/render"
	"github.com/demindx/reportpipe/worker"
)

// Options configures a ReportPipe instance.
type Options struct {
	// SynthesisModel is used for aggregation; defaults to the main model.
	SynthesisModel core.Model
	// Retriever optionally grounds worker subtasks in search findings.
	Retriever core.Retriever
	// ArtifactStore persists rendered reports (in-memory by default).
	ArtifactStore core.ArtifactStore
	// Renderer produces the persisted artifact (markdown by default).
	Renderer core.Renderer
	// Locale is the default output locale when a request carries no hint
	// and the planner cannot determine one.
	Locale string
	// MaxInFlight bounds concurrent subtask executions per run. 0 = unbounded.
	MaxInFlight int64
	// EventBufferSize sets per-run progress channel buffering.
	EventBufferSize int
	// QueueRunners is the fixed background runner pool size.
	QueueRunners int
	// QueueCapacity bounds the pending submission buffer.
	QueueCapacity int
	// QueueRetention caps retained terminal run records.
	QueueRetention int
	// Logger defaults to NoOpLogger if nil.
	Logger logging.Logger
}

// ReportPipe aggregates the pipeline, its queue and the artifact store.
type ReportPipe struct {
	opts     Options
	pipeline *pipeline.Pipeline
	queue    *queue.Queue
	store    core.ArtifactStore
	report   *render.Markdown
}

// New creates a ReportPipe with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(model core.Model, optFns ...func(o *Options)) *ReportPipe {
	opts := Options{
		SynthesisModel:  model,
		ArtifactStore:   artifact.NewInMemoryStore(),
		Locale:          planner.DefaultLocale,
		EventBufferSize: 64,
		QueueRunners:    3,
		QueueCapacity:   64,
		QueueRetention:  1024,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var report *render.Markdown
	if opts.Renderer == nil {
		report = render.NewMarkdown(opts.ArtifactStore)
		opts.Renderer = report
	}

	pl := planner.New(model, func(o *planner.Options) {
		o.Locale = opts.Locale
		o.Logger = opts.Logger
	})
	w := worker.New(model, func(o *worker.Options) {
		o.Retriever = opts.Retriever
		o.Logger = opts.Logger
	})
	agg := aggregator.New(opts.SynthesisModel, opts.Renderer, func(o *aggregator.Options) {
		o.Logger = opts.Logger
	})
	pipe := pipeline.New(pl, w, agg, func(o *pipeline.Options) {
		o.MaxInFlight = opts.MaxInFlight
		o.EventBufferSize = opts.EventBufferSize
		o.Logger = opts.Logger
	})
	q := queue.New(pipe, func(o *queue.Options) {
		o.Runners = opts.QueueRunners
		o.Capacity = opts.QueueCapacity
		o.Retention = opts.QueueRetention
		o.Logger = opts.Logger
	})

	return &ReportPipe{opts: opts, pipeline: pipe, queue: q, store: opts.ArtifactStore, report: report}
}

// Start launches the background runner pool for queued runs. Direct runs
// (Run / RunSync) work without it.
func (rp *ReportPipe) Start(ctx context.Context) { rp.queue.Start(ctx) }

// Close stops the runner pool, waiting for in-flight runs.
func (rp *ReportPipe) Close() { rp.queue.Close() }

// Run starts an asynchronous direct run returning progress event & error channels.
func (rp *ReportPipe) Run(ctx context.Context, req core.Request) (string, <-chan core.Event, <-chan error, error) {
	return rp.pipeline.Run(ctx, req)
}

// RunSync is a synchronous helper that executes the run inline, accumulates
// all progress events and returns the artifact.
func (rp *ReportPipe) RunSync(ctx context.Context, req core.Request) (string, core.Artifact, []core.Event, error) {
	runID := core.NewID()

	// Subtask events are emitted from worker goroutines, hence the lock.
	var mu sync.Mutex
	var events []core.Event
	art, err := rp.pipeline.Execute(ctx, runID, req, func(ev core.Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	return runID, art, events, err
}

// Submit enqueues a run for background execution and returns its identifier
// immediately. Requires Start.
func (rp *ReportPipe) Submit(req core.Request) (string, error) {
	return rp.queue.Submit(req)
}

// Status reports a queued run's lifecycle state (core.StatusNotFound for
// unknown identifiers).
func (rp *ReportPipe) Status(runID string) core.RunStatus {
	return rp.queue.Status(runID)
}

// Result returns a queued run's artifact once it is DONE; see queue.Result
// for the not-ready / failed / unknown error values.
func (rp *ReportPipe) Result(runID string) (core.Artifact, error) {
	return rp.queue.Result(runID)
}

// Record returns a snapshot of a queued run's full record.
func (rp *ReportPipe) Record(runID string) (core.RunRecord, bool) {
	return rp.queue.Record(runID)
}

// Report fetches the rendered report bytes for a run from the artifact
// store. Only available with the default markdown renderer.
func (rp *ReportPipe) Report(runID string) ([]byte, error) {
	name := "report.md"
	if rp.report != nil {
		name = rp.report.FileName()
	}
	return rp.store.Get(runID, name)
}
