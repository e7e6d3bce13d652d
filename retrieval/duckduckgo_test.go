package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/demindx/reportpipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ core.Retriever = (*DuckDuckGo)(nil)

const samplePayload = `{
	"Heading": "Go (programming language)",
	"AbstractText": "Go is a statically typed language.",
	"RelatedTopics": [
		{"Text": "Goroutines are lightweight threads.", "FirstURL": "https://example.com/goroutines"},
		{"Text": "", "Name": "Category"},
		{"Text": "Channels connect goroutines.", "FirstURL": "https://example.com/channels"}
	]
}`

func newTestRetriever(t *testing.T, handler http.HandlerFunc, optFns ...func(o *Options)) *DuckDuckGo {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(append([]func(o *Options){func(o *Options) { o.BaseURL = srv.URL }}, optFns...)...)
}

func TestDuckDuckGo_Search(t *testing.T) {
	var query string
	d := newTestRetriever(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(samplePayload))
	})

	results, err := d.Search(context.Background(), "go concurrency")
	require.NoError(t, err)

	assert.Equal(t, "go concurrency", query)
	require.Len(t, results, 3)
	assert.Equal(t, "Go (programming language)", results[0].Title)
	assert.Equal(t, "Go is a statically typed language.", results[0].Snippet)
	assert.Equal(t, "Goroutines are lightweight threads.", results[1].Snippet)
	assert.Equal(t, "Channels connect goroutines.", results[2].Snippet)
}

func TestDuckDuckGo_Search_MaxResults(t *testing.T) {
	d := newTestRetriever(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePayload))
	}, func(o *Options) { o.MaxResults = 1 })

	results, err := d.Search(context.Background(), "go")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestDuckDuckGo_Search_EmptyPayload(t *testing.T) {
	d := newTestRetriever(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	results, err := d.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDuckDuckGo_Search_BadStatus(t *testing.T) {
	d := newTestRetriever(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := d.Search(context.Background(), "go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestDuckDuckGo_Search_Timeout(t *testing.T) {
	d := newTestRetriever(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}, func(o *Options) { o.Timeout = 20 * time.Millisecond })

	_, err := d.Search(context.Background(), "slow")
	require.Error(t, err)
}

func TestDuckDuckGo_InjectedClientUnmodified(t *testing.T) {
	shared := &http.Client{Timeout: 42 * time.Second}
	d := newTestRetriever(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, func(o *Options) {
		o.HTTPClient = shared
		o.Timeout = time.Second
	})

	_, err := d.Search(context.Background(), "go")
	require.NoError(t, err)

	// A caller-owned client may be shared across services; constructing a
	// retriever around it must not touch its settings.
	assert.Equal(t, 42*time.Second, shared.Timeout)
}

func TestDuckDuckGo_Search_ContextCancelled(t *testing.T) {
	d := newTestRetriever(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Search(ctx, "go")
	require.Error(t, err)
}
