// Package worker implements the Worker capability: a universal executor that
// turns one subtask instruction into an output string via a reasoning model,
// optionally grounded with retrieved findings.
package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/logging"
)

const systemPrompt = "You are a universal executor. Perform the task EXACTLY as described " +
	"in the user instruction.\n" +
	"Strictly follow the required output format (text, JSON, chart / table description, etc.)."

// Options configures a ModelWorker.
type Options struct {
	// Retriever, when set, augments each instruction with search findings.
	Retriever core.Retriever
	// Temperature for worker completions.
	Temperature float64
	// MaxTokens caps each worker completion.
	MaxTokens int64
	// MaxFindings limits how many retrieval hits are included.
	MaxFindings int
	// Logger for worker diagnostics; NoOpLogger if nil.
	Logger logging.Logger
}

// ModelWorker executes subtask instructions with a reasoning model. The
// worker deliberately ignores the subtask kind: the instruction is complete
// and self-contained, kinds only matter for aggregation headings. A
// retrieval failure never fails the subtask; the worker records the failure
// inline in the prompt context and proceeds without findings.
type ModelWorker struct {
	model       core.Model
	retriever   core.Retriever
	temperature float64
	maxTokens   int64
	maxFindings int
	logger      logging.Logger
}

// New creates a ModelWorker backed by the given model.
func New(model core.Model, optFns ...func(o *Options)) *ModelWorker {
	opts := Options{
		Temperature: 0.2,
		MaxTokens:   1500,
		MaxFindings: 5,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelWorker{
		model:       model,
		retriever:   opts.Retriever,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		maxFindings: opts.MaxFindings,
		logger:      opts.Logger,
	}
}

// Execute implements core.Worker.
func (w *ModelWorker) Execute(ctx context.Context, sub core.Subtask) (string, error) {
	user := sub.Instruction
	if w.retriever != nil {
		user = user + "\n\nBackground findings (may be incomplete, verify before use):\n" +
			w.lookup(ctx, sub.Instruction)
	}

	return w.model.Generate(ctx, core.GenerateRequest{
		System:      systemPrompt,
		User:        user,
		Temperature: w.temperature,
		MaxTokens:   w.maxTokens,
	})
}

// lookup searches for material related to the instruction and formats the
// top hits as a bullet list. Errors degrade to a textual marker so the
// subtask can still be executed from the model's own knowledge.
func (w *ModelWorker) lookup(ctx context.Context, query string) string {
	results, err := w.retriever.Search(ctx, query)
	if err != nil {
		w.logger.Warn("retrieval failed, continuing without findings", "error", err)
		return fmt.Sprintf("[search unavailable: %v]", err)
	}
	if len(results) == 0 {
		return "[no search results]"
	}
	if len(results) > w.maxFindings {
		results = results[:w.maxFindings]
	}

	var sb strings.Builder
	for _, r := range results {
		sb.WriteString("- ")
		if r.Title != "" {
			sb.WriteString(r.Title)
			sb.WriteString(": ")
		}
		sb.WriteString(r.Snippet)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
