package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/demindx/reportpipe/aggregator"
	"github.com/demindx/reportpipe/artifact"
	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/internal/testutil"
	"github.com/demindx/reportpipe/planner"
	"github.com/demindx/reportpipe/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoStepPlan = `{"locale":"en","subtasks":[
	{"kind":"research","instruction":"collect the metrics"},
	{"kind":"stats","instruction":"compare them"}
]}`

// newTestPipeline wires a pipeline from stubs: planModel answers the planner,
// w executes subtasks, aggModel answers the synthesis call.
func newTestPipeline(planModel, aggModel core.Model, w core.Worker, optFns ...func(o *Options)) *Pipeline {
	pl := planner.New(planModel)
	agg := aggregator.New(aggModel, render.NewMarkdown(artifact.NewInMemoryStore()))
	return New(pl, w, agg, optFns...)
}

func collect(events <-chan core.Event) []core.Event {
	var out []core.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func kinds(events []core.Event) []core.EventKind {
	out := make([]core.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestPipeline_Run_MergesInPlanOrder(t *testing.T) {
	// "stats" completes before "research"; the merged prompt must still see
	// plan order and the final artifact is the synthesis output.
	w := &testutil.StubWorker{
		ExecuteFn: func(_ context.Context, sub core.Subtask) (string, error) {
			if sub.Kind == "research" {
				time.Sleep(30 * time.Millisecond)
				return "A", nil
			}
			return "B", nil
		},
	}
	aggModel := &testutil.StubModel{Responses: []string{"MERGED(A,B)"}}
	p := newTestPipeline(&testutil.StubModel{Responses: []string{twoStepPlan}}, aggModel, w)

	runID, events, errs, err := p.Run(context.Background(), core.Request{Query: "Compare two metrics and produce a summary"})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	got := collect(events)
	require.NoError(t, <-errs)

	done := got[len(got)-1]
	assert.Equal(t, core.EventRunDone, done.Kind)
	assert.Equal(t, "artifact://"+runID+"/report.md", done.Location)

	// The synthesis prompt saw research before stats despite completion order.
	aggCalls := aggModel.Calls()
	require.Len(t, aggCalls, 1)
	assert.Regexp(t, `(?s)"research".*"A".*"stats".*"B"`, aggCalls[0].User)
}

func TestPipeline_Run_EventSequence(t *testing.T) {
	w := &testutil.StubWorker{}
	p := newTestPipeline(
		&testutil.StubModel{Responses: []string{twoStepPlan}},
		&testutil.StubModel{Responses: []string{"merged"}},
		w,
	)

	runID, events, errs, err := p.Run(context.Background(), core.Request{Query: "q"})
	require.NoError(t, err)

	got := collect(events)
	require.NoError(t, <-errs)

	// 1 started + 1 plan + 2*2 subtask + 1 synthesis + 1 done
	require.Len(t, got, 8)
	ks := kinds(got)
	assert.Equal(t, core.EventRunStarted, ks[0])
	assert.Equal(t, core.EventPlanReady, ks[1])
	assert.Equal(t, core.EventSynthesisStarted, ks[6])
	assert.Equal(t, core.EventRunDone, ks[7])

	// Subtask events interleave freely but stay between plan and synthesis.
	started, finished := 0, 0
	for _, ev := range got[2:6] {
		switch ev.Kind {
		case core.EventSubtaskStarted:
			started++
		case core.EventSubtaskFinished:
			finished++
		default:
			t.Fatalf("unexpected event kind %s between plan and synthesis", ev.Kind)
		}
		assert.Contains(t, []string{"research", "stats"}, ev.SubtaskKind)
	}
	assert.Equal(t, 2, started)
	assert.Equal(t, 2, finished)

	plan := got[1]
	assert.Equal(t, 2, plan.SubtaskCount)
	assert.Equal(t, "en", plan.Locale)
	for _, ev := range got {
		assert.Equal(t, runID, ev.RunID)
	}
}

func TestPipeline_Run_SubtaskFailureDoesNotFailRun(t *testing.T) {
	w := &testutil.StubWorker{
		ExecuteFn: func(_ context.Context, sub core.Subtask) (string, error) {
			if sub.Kind == "stats" {
				return "", errors.New("boom")
			}
			return "A", nil
		},
	}
	aggModel := &testutil.StubModel{Responses: []string{"partial report"}}
	p := newTestPipeline(&testutil.StubModel{Responses: []string{twoStepPlan}}, aggModel, w)

	_, events, errs, err := p.Run(context.Background(), core.Request{Query: "q"})
	require.NoError(t, err)

	got := collect(events)
	require.NoError(t, <-errs, "an isolated subtask failure must not fail the run")
	assert.Equal(t, core.EventRunDone, got[len(got)-1].Kind)

	// The failure is visible to synthesis as an inline error marker.
	aggCalls := aggModel.Calls()
	require.Len(t, aggCalls, 1)
	assert.Contains(t, aggCalls[0].User, "boom")
}

func TestPipeline_Run_PlanningFailure(t *testing.T) {
	sentinel := errors.New("planner model down")
	p := newTestPipeline(&testutil.StubModel{Err: sentinel}, &testutil.StubModel{}, &testutil.StubWorker{})

	_, events, errs, err := p.Run(context.Background(), core.Request{Query: "q"})
	require.NoError(t, err)

	got := collect(events)
	err = <-errs
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel))

	last := got[len(got)-1]
	assert.Equal(t, core.EventRunFailed, last.Kind)
	assert.Contains(t, last.Message, "planner model down")
}

func TestPipeline_Run_AggregationFailure(t *testing.T) {
	sentinel := errors.New("synthesis down")
	p := newTestPipeline(
		&testutil.StubModel{Responses: []string{twoStepPlan}},
		&testutil.StubModel{Err: sentinel},
		&testutil.StubWorker{},
	)

	_, events, errs, err := p.Run(context.Background(), core.Request{Query: "q"})
	require.NoError(t, err)

	got := collect(events)
	err = <-errs
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel))
	assert.Equal(t, core.EventRunFailed, got[len(got)-1].Kind)
}

func TestPipeline_Run_EmptyQuery(t *testing.T) {
	p := newTestPipeline(&testutil.StubModel{}, &testutil.StubModel{}, &testutil.StubWorker{})
	_, _, _, err := p.Run(context.Background(), core.Request{})
	require.Error(t, err)
}

func TestPipeline_Execute_CompletesWithoutObserver(t *testing.T) {
	// nil emit: the run must complete with no observer at all.
	p := newTestPipeline(
		&testutil.StubModel{Responses: []string{twoStepPlan}},
		&testutil.StubModel{Responses: []string{"merged"}},
		&testutil.StubWorker{},
	)

	art, err := p.Execute(context.Background(), core.NewID(), core.Request{Query: "q"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "merged", art.Content)
	assert.NotEmpty(t, art.Location)
}

func TestPipeline_Run_SlowObserverDoesNotStallRun(t *testing.T) {
	p := newTestPipeline(
		&testutil.StubModel{Responses: []string{twoStepPlan}},
		&testutil.StubModel{Responses: []string{"merged"}},
		&testutil.StubWorker{},
		func(o *Options) { o.EventBufferSize = 1 },
	)

	_, events, errs, err := p.Run(context.Background(), core.Request{Query: "q"})
	require.NoError(t, err)

	// Never read events; the run must still terminate.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, <-errs)
	}()
	wg.Wait()

	// Whatever fit in the tiny buffer is still drainable afterwards.
	assert.NotEmpty(t, collect(events))
}
