package core

import "context"

// GenerateRequest is a vendor-neutral text generation request. Zero values
// for Temperature and MaxTokens let the provider adapter apply its defaults.
type GenerateRequest struct {
	// System is the system role text; may be empty.
	System string
	// User is the user content to complete.
	User string
	// Temperature overrides the adapter default when > 0.
	Temperature float64
	// MaxTokens caps the completion length when > 0.
	MaxTokens int64
}

// Model is the external reasoning capability consumed by the planner, the
// worker and the aggregator. Implementations wrap a provider SDK and must be
// safe for concurrent use; the executor fans subtasks out in parallel.
type Model interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
