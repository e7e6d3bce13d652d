// Package pipeline composes planner, executor and aggregator into one run
// and reports phase transitions as ordered progress events.
//
// A run moves through the phases PLANNING → EXECUTING → AGGREGATING → DONE,
// with FAILED reachable from any phase. Each transition emits a core.Event;
// subtask dispatch and completion emit one event per subtask. No retry is
// attempted by the pipeline itself: a planning, synthesis or rendering
// failure terminates the run, while per-subtask failures are isolated inside
// the executor and reflected in the final report instead.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/demindx/reportpipe/aggregator"
	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/executor"
	"github.com/demindx/reportpipe/logging"
	"github.com/demindx/reportpipe/planner"
)

// Phase labels one stage of a run, used for logging.
type Phase string

const (
	// PhasePlanning covers request decomposition.
	PhasePlanning Phase = "PLANNING"
	// PhaseExecuting covers concurrent subtask execution.
	PhaseExecuting Phase = "EXECUTING"
	// PhaseAggregating covers synthesis and rendering.
	PhaseAggregating Phase = "AGGREGATING"
	// PhaseDone is the successful terminal phase.
	PhaseDone Phase = "DONE"
	// PhaseFailed is the failed terminal phase.
	PhaseFailed Phase = "FAILED"
)

// Options configures a Pipeline.
type Options struct {
	// MaxInFlight bounds concurrent subtask executions per run. 0 = unbounded.
	MaxInFlight int64
	// EventBufferSize sets the per-run event channel buffering for Run.
	EventBufferSize int
	// Logger for pipeline diagnostics; NoOpLogger if nil.
	Logger logging.Logger
}

// Pipeline drives one request end to end. It is stateless across runs and
// safe for concurrent use; every run gets its own executor wired to that
// run's event emission.
type Pipeline struct {
	planner     *planner.Planner
	worker      core.Worker
	aggregator  *aggregator.Aggregator
	maxInFlight int64
	bufferSize  int
	logger      logging.Logger
}

// New composes a Pipeline from its three stages.
func New(pl *planner.Planner, w core.Worker, agg *aggregator.Aggregator, optFns ...func(o *Options)) *Pipeline {
	opts := Options{
		EventBufferSize: 64,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Pipeline{
		planner:     pl,
		worker:      w,
		aggregator:  agg,
		maxInFlight: opts.MaxInFlight,
		bufferSize:  opts.EventBufferSize,
		logger:      opts.Logger,
	}
}

// Run starts an asynchronous run. It returns:
//
//	runID    - stable identifier for the run
//	eventsCh - ordered stream of progress events (closed on completion)
//	errorsCh - terminal error channel (size 1, closed after send/none)
//
// Event delivery is best-effort: if the observer stops draining eventsCh the
// run still completes, dropping events that no longer fit the buffer.
func (p *Pipeline) Run(ctx context.Context, req core.Request) (string, <-chan core.Event, <-chan error, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", nil, nil, fmt.Errorf("empty request query")
	}

	runID := core.NewID()
	eventsCh := make(chan core.Event, p.bufferSize)
	errorsCh := make(chan error, 1)

	go func() {
		defer close(eventsCh)
		defer close(errorsCh)

		_, err := p.Execute(ctx, runID, req, func(ev core.Event) {
			select {
			case eventsCh <- ev:
			default: // observer gone or slow; the run must not stall
			}
		})
		if err != nil {
			errorsCh <- err
		}
	}()

	return runID, eventsCh, errorsCh, nil
}

// Execute drives a run synchronously under a caller-supplied run identifier,
// pushing progress events into emit (may be nil). The job queue uses this
// entry point with its own record ids; Run wraps it with channel plumbing.
func (p *Pipeline) Execute(ctx context.Context, runID string, req core.Request, emit func(core.Event)) (core.Artifact, error) {
	if emit == nil {
		emit = func(core.Event) {}
	}
	if strings.TrimSpace(req.Query) == "" {
		return p.fail(runID, PhasePlanning, fmt.Errorf("empty request query"), emit, p.logger)
	}
	logger := logging.WithRun(p.logger, runID)

	logger.Info("run accepted", "phase", PhasePlanning)
	emit(core.NewRunStartedEvent(runID))

	plan, err := p.planner.Plan(ctx, req)
	if err != nil {
		return p.fail(runID, PhasePlanning, err, emit, logger)
	}
	emit(core.NewPlanReadyEvent(runID, len(plan.Subtasks), plan.Locale))

	logger.Info("executing plan", "phase", PhaseExecuting, "subtasks", len(plan.Subtasks))
	exec := executor.New(p.worker, func(o *executor.Options) {
		o.MaxInFlight = p.maxInFlight
		o.Logger = logger
		o.OnSubtaskStart = func(pos int, sub core.Subtask) {
			emit(core.NewSubtaskStartedEvent(runID, sub.Kind, pos))
		}
		o.OnSubtaskDone = func(pos int, res core.SubtaskResult) {
			emit(core.NewSubtaskFinishedEvent(runID, res.Kind, pos, res.Failed()))
		}
	})
	results := exec.RunAll(ctx, plan.Subtasks)

	logger.Info("synthesizing report", "phase", PhaseAggregating)
	emit(core.NewSynthesisStartedEvent(runID))

	art, err := p.aggregator.Aggregate(ctx, runID, results, plan.Locale)
	if err != nil {
		return p.fail(runID, PhaseAggregating, err, emit, logger)
	}

	logger.Info("run completed", "phase", PhaseDone, "location", art.Location)
	emit(core.NewRunDoneEvent(runID, art.Location))
	return art, nil
}

func (p *Pipeline) fail(runID string, phase Phase, err error, emit func(core.Event), logger logging.Logger) (core.Artifact, error) {
	wrapped := fmt.Errorf("%s: %w", phase, err)
	logger.Error("run failed", "phase", PhaseFailed, "error", err)
	emit(core.NewRunFailedEvent(runID, wrapped))
	return core.Artifact{}, wrapped
}
