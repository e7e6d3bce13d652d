// Package planner turns a raw report request into an ordered Plan of
// subtasks by invoking a reasoning model, with a guaranteed fallback when the
// model's structured output cannot be used.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/logging"
	"github.com/tidwall/gjson"
)

// FallbackKind is the sentinel subtask kind used when decomposition fails
// and the whole request is handed to a single universal worker.
const FallbackKind = "generic"

// DefaultLocale is the output locale used when neither the request nor the
// model determines one.
const DefaultLocale = "en"

const planTemperature = 0.2

const systemPrompt = "You are a planner. Given a user request, produce a WORK PLAN " +
	"for a single universal worker.\n" +
	"Workers do not exist as code entities; there are only task kinds and instructions.\n" +
	"Each plan item is one virtual worker: kind + instruction."

const userPromptTemplate = `User request:
"""%s"""

Break this request into a few logical steps. For each step create an object:

{
  "kind": "a short label, e.g. 'research', 'stats_analyzer', 'plot_designer', 'table_extractor'",
  "instruction": "the COMPLETE textual instruction for the worker. Inside it explain:
                  - who the worker is (role),
                  - exactly what to do in this step,
                  - how to find / process the data,
                  - the output format (text, JSON, table / chart descriptions)."
}

Requirements:
- ALL instructions for the worker must live INSIDE the 'instruction' field.
- 'kind' is only a grouping label for aggregation; the worker must not rely on it.
- Make output formats (especially tables and charts) as structured as possible (JSON).

Return ONLY a JSON object of the form
{"locale": "<BCP 47 language tag of the requested output language>", "subtasks": [ ... ]}
with no text before or after. A bare JSON array of subtask objects is also accepted.`

// Options configures a Planner.
type Options struct {
	// Locale is the fallback output locale (DefaultLocale if empty).
	Locale string
	// Logger for planning diagnostics; NoOpLogger if nil.
	Logger logging.Logger
}

// Planner produces Plans from Requests. It never surfaces decomposition
// failures: unparsable or empty model output yields a single-subtask
// fallback plan, keeping the rest of the pipeline alive. Only a failed model
// call itself is returned as an error.
type Planner struct {
	model  core.Model
	locale string
	logger logging.Logger
}

// New creates a Planner backed by the given reasoning model.
func New(model core.Model, optFns ...func(o *Options)) *Planner {
	opts := Options{
		Locale: DefaultLocale,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Planner{model: model, locale: opts.Locale, logger: opts.Logger}
}

// Plan invokes the model and parses its structured response into a Plan. The
// returned plan always has at least one subtask.
func (p *Planner) Plan(ctx context.Context, req core.Request) (core.Plan, error) {
	raw, err := p.model.Generate(ctx, core.GenerateRequest{
		System:      systemPrompt,
		User:        fmt.Sprintf(userPromptTemplate, req.Query),
		Temperature: planTemperature,
	})
	if err != nil {
		return core.Plan{}, fmt.Errorf("plan request: %w", err)
	}

	subtasks, locale := parseSubtasks(raw)
	if len(subtasks) == 0 {
		p.logger.Warn("planner output unusable, falling back to generic subtask", "raw_len", len(raw))
		subtasks = []core.Subtask{fallbackSubtask(req.Query)}
	}

	return core.Plan{
		Request:  req,
		Subtasks: subtasks,
		Locale:   p.resolveLocale(req, locale),
	}, nil
}

// resolveLocale picks the output locale: the request hint wins, then the
// model-reported locale, then the configured default.
func (p *Planner) resolveLocale(req core.Request, parsed string) string {
	if req.Locale != "" {
		return req.Locale
	}
	if parsed != "" {
		return parsed
	}
	return p.locale
}

// parseSubtasks leniently extracts {kind, instruction} pairs and an optional
// locale from the model output. It accepts either a bare JSON array or an
// object with "subtasks" (and optional "locale"), with or without a code
// fence. Anything else yields an empty slice, triggering the fallback.
func parseSubtasks(raw string) ([]core.Subtask, string) {
	raw = stripCodeFence(raw)
	if !gjson.Valid(raw) {
		return nil, ""
	}

	root := gjson.Parse(raw)
	items := root
	locale := ""
	if root.IsObject() {
		items = root.Get("subtasks")
		locale = strings.TrimSpace(root.Get("locale").String())
	}
	if !items.IsArray() {
		return nil, locale
	}

	var subtasks []core.Subtask
	for _, item := range items.Array() {
		instruction := strings.TrimSpace(item.Get("instruction").String())
		if instruction == "" {
			continue
		}
		kind := strings.TrimSpace(item.Get("kind").String())
		if kind == "" {
			kind = FallbackKind
		}
		subtasks = append(subtasks, core.Subtask{Kind: kind, Instruction: instruction})
	}
	return subtasks, locale
}

// fallbackSubtask wraps the entire original request into one generic
// instruction for a universal worker.
func fallbackSubtask(query string) core.Subtask {
	return core.Subtask{
		Kind: FallbackKind,
		Instruction: "You are a universal worker. Execute this entire request end to end, " +
			"find and analyze all relevant data, and return a structured text report:\n" + query,
	}
}

// stripCodeFence removes a surrounding markdown code fence (``` or ```json)
// that models occasionally wrap structured output in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
