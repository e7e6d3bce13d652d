// Package aggregator merges the ordered subtask results of a run into one
// coherent report via a synthesis model and hands the text to a renderer for
// persistence.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/logging"
)

const systemPrompt = "You are a report editor. You turn intermediate results into clean, " +
	"well structured text. Break long paragraphs into shorter lines."

const userPromptTemplate = `You are given a list of intermediate results produced by workers of
different kinds, in their original plan order.

Merge them into ONE clean, structured, concise report:
- remove duplicated information,
- summarize the results of each step under a heading derived from its "kind",
- keep the original step order,
- results marked with "error" could not be produced; note the gap briefly
  instead of inventing content,
- write the report in the "%s" locale.

Input data (JSON):
%s

Output only the final report text.`

// Options configures an Aggregator.
type Options struct {
	// Temperature for the synthesis completion.
	Temperature float64
	// MaxTokens caps the synthesis completion.
	MaxTokens int64
	// Logger for aggregation diagnostics; NoOpLogger if nil.
	Logger logging.Logger
}

// Aggregator produces the final Artifact of a run. Unlike subtask execution
// there is no per-item isolation here: synthesis is a single call over the
// whole batch, so a synthesis or rendering failure is fatal to the run.
type Aggregator struct {
	model       core.Model
	renderer    core.Renderer
	temperature float64
	maxTokens   int64
	logger      logging.Logger
}

// New creates an Aggregator using the given synthesis model and renderer.
func New(model core.Model, renderer core.Renderer, optFns ...func(o *Options)) *Aggregator {
	opts := Options{
		Temperature: 0.2,
		MaxTokens:   2000,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Aggregator{
		model:       model,
		renderer:    renderer,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		logger:      opts.Logger,
	}
}

// Aggregate merges the full ordered result list into one report in the given
// locale, renders it and returns the Artifact with its location reference.
func (a *Aggregator) Aggregate(ctx context.Context, runID string, results []core.SubtaskResult, locale string) (core.Artifact, error) {
	prompt, err := buildPrompt(results, locale)
	if err != nil {
		return core.Artifact{}, err
	}

	text, err := a.model.Generate(ctx, core.GenerateRequest{
		System:      systemPrompt,
		User:        prompt,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return core.Artifact{}, fmt.Errorf("synthesize report: %w", err)
	}

	location, err := a.renderer.Render(ctx, runID, text)
	if err != nil {
		return core.Artifact{}, fmt.Errorf("render report: %w", err)
	}
	a.logger.Info("report rendered", "run_id", runID, "location", location)

	return core.Artifact{Content: text, Location: location}, nil
}

// buildPrompt embeds the ordered results as an indented JSON document so the
// model sees kinds, instructions and outputs (or inline error markers).
func buildPrompt(results []core.SubtaskResult, locale string) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	return fmt.Sprintf(userPromptTemplate, locale, data), nil
}
