package core

import "context"

// SearchResult is one ranked retrieval hit.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Retriever is the optional external retrieval capability a worker may use
// to ground a subtask in external data. Implementations must bound their
// latency (timeout) so a slow backend cannot stall a run; a failed search is
// reported as an error and the worker degrades to reasoning without findings.
type Retriever interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}
