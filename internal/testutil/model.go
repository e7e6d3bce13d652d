package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/demindx/reportpipe/core"
)

// StubModel is a scripted core.Model. It answers either via RespondFn (when
// set) or by replaying Responses in call order, and records every request it
// receives. Safe for concurrent use.
type StubModel struct {
	// RespondFn computes the response per request; takes precedence over Responses.
	RespondFn func(req core.GenerateRequest) (string, error)
	// Responses are replayed in call order when RespondFn is nil.
	Responses []string
	// Err, when set, is returned by every call (RespondFn ignored).
	Err error

	mu    sync.Mutex
	calls []core.GenerateRequest
}

// Generate implements core.Model.
func (m *StubModel) Generate(_ context.Context, req core.GenerateRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	n := len(m.calls)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.RespondFn != nil {
		return m.RespondFn(req)
	}
	if n > len(m.Responses) {
		return "", fmt.Errorf("stub model: no response scripted for call %d", n)
	}
	return m.Responses[n-1], nil
}

// Calls returns a snapshot of all requests received so far.
func (m *StubModel) Calls() []core.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.GenerateRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
