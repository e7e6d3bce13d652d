package aggregator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRenderer records the text it was handed and returns a fixed location.
type stubRenderer struct {
	location string
	err      error

	runID string
	text  string
}

func (r *stubRenderer) Render(_ context.Context, runID, text string) (string, error) {
	r.runID = runID
	r.text = text
	if r.err != nil {
		return "", r.err
	}
	return r.location, nil
}

func sampleResults() []core.SubtaskResult {
	return []core.SubtaskResult{
		{Kind: "research", Instruction: "collect", Output: "A"},
		{Kind: "stats", Instruction: "compare", Output: "B"},
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	model := &testutil.StubModel{Responses: []string{"MERGED(A,B)"}}
	renderer := &stubRenderer{location: "mem://run-1/report.md"}
	agg := New(model, renderer)

	art, err := agg.Aggregate(context.Background(), "run-1", sampleResults(), "en")
	require.NoError(t, err)

	assert.Equal(t, "MERGED(A,B)", art.Content)
	assert.Equal(t, "mem://run-1/report.md", art.Location)
	assert.Equal(t, "run-1", renderer.runID)
	assert.Equal(t, "MERGED(A,B)", renderer.text)
}

func TestAggregator_Aggregate_PromptCarriesOrderedResults(t *testing.T) {
	model := &testutil.StubModel{Responses: []string{"merged"}}
	agg := New(model, &stubRenderer{location: "loc"})

	_, err := agg.Aggregate(context.Background(), "run-1", sampleResults(), "de")
	require.NoError(t, err)

	calls := model.Calls()
	require.Len(t, calls, 1)
	prompt := calls[0].User
	assert.Contains(t, prompt, `"research"`)
	assert.Contains(t, prompt, `"stats"`)
	assert.Contains(t, prompt, `"A"`)
	assert.Contains(t, prompt, `"B"`)
	assert.Contains(t, prompt, `"de"`)
	// Plan order must survive into the prompt.
	assert.Less(t, strings.Index(prompt, `"research"`), strings.Index(prompt, `"stats"`))
	assert.Equal(t, int64(2000), calls[0].MaxTokens)
}

func TestAggregator_Aggregate_SynthesisError(t *testing.T) {
	sentinel := errors.New("model down")
	renderer := &stubRenderer{location: "loc"}
	agg := New(&testutil.StubModel{Err: sentinel}, renderer)

	_, err := agg.Aggregate(context.Background(), "run-1", sampleResults(), "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel))
	assert.Contains(t, err.Error(), "synthesize report")
	assert.Empty(t, renderer.text, "renderer must not be called after synthesis failure")
}

func TestAggregator_Aggregate_RenderError(t *testing.T) {
	sentinel := errors.New("disk full")
	agg := New(&testutil.StubModel{Responses: []string{"merged"}}, &stubRenderer{err: sentinel})

	_, err := agg.Aggregate(context.Background(), "run-1", sampleResults(), "en")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel))
	assert.Contains(t, err.Error(), "render report")
}
