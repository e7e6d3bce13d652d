// Package retrieval provides a Retriever implementation backed by the
// DuckDuckGo Instant Answer API. Responses are parsed leniently with gjson
// and every request carries a bounded timeout so a slow backend cannot stall
// a pipeline run.
package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/demindx/reportpipe/core"
	"github.com/demindx/reportpipe/logging"
	"github.com/tidwall/gjson"
)

const maxBodyBytes = 1 << 20 // 1 MiB response cap

// Options configures a DuckDuckGo retriever.
type Options struct {
	// BaseURL of the Instant Answer endpoint (override for tests / proxies).
	BaseURL string
	// Timeout bounds each search request end to end.
	Timeout time.Duration
	// MaxResults caps the number of hits returned.
	MaxResults int
	// HTTPClient overrides the default client. It is used as supplied and
	// never mutated; Timeout then only bounds the internally built client.
	HTTPClient *http.Client
	// Logger for retrieval diagnostics; NoOpLogger if nil.
	Logger logging.Logger
}

// DuckDuckGo queries the Instant Answer API and maps abstract + related
// topics into ranked SearchResults. The API needs no credentials, which
// keeps the default pipeline runnable without extra configuration.
type DuckDuckGo struct {
	baseURL    string
	client     *http.Client
	maxResults int
	logger     logging.Logger
}

// New creates a DuckDuckGo retriever.
func New(optFns ...func(o *Options)) *DuckDuckGo {
	opts := Options{
		BaseURL:    "https://api.duckduckgo.com",
		Timeout:    5 * time.Second,
		MaxResults: 5,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &DuckDuckGo{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		client:     client,
		maxResults: opts.MaxResults,
		logger:     opts.Logger,
	}
}

// Search implements core.Retriever.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1",
		d.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	results := d.parse(body)
	d.logger.Debug("search completed", "query_len", len(query), "results", len(results))
	return results, nil
}

// parse extracts the abstract (if any) followed by related topics, capped at
// maxResults. Malformed or empty payloads yield an empty slice, not an
// error; the backend legitimately returns nothing for many queries.
func (d *DuckDuckGo) parse(body []byte) []core.SearchResult {
	root := gjson.ParseBytes(body)

	var results []core.SearchResult
	if abstract := strings.TrimSpace(root.Get("AbstractText").String()); abstract != "" {
		results = append(results, core.SearchResult{
			Title:   root.Get("Heading").String(),
			Snippet: abstract,
		})
	}

	for _, topic := range root.Get("RelatedTopics").Array() {
		if len(results) >= d.maxResults {
			break
		}
		text := strings.TrimSpace(topic.Get("Text").String())
		if text == "" {
			continue // category nodes carry nested topics, skipped here
		}
		results = append(results, core.SearchResult{
			Title:   topic.Get("FirstURL").String(),
			Snippet: text,
		})
	}

	if len(results) > d.maxResults {
		results = results[:d.maxResults]
	}
	return results
}
