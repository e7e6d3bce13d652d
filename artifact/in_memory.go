// Package artifact provides core.ArtifactStore implementations used by the
// report renderer: a process-local in-memory store and a filesystem store.
package artifact

import (
	"bytes"
	"sort"
	"sync"
)

type memKey struct {
	runID      string
	artifactID string
}

// InMemoryStore keeps rendered reports in process memory, keyed by run and
// artifact id in a single flat map. It backs the default wiring and the test
// suite; nothing survives a restart, so setups that need durable reports use
// FileStore instead.
//
// Stored bytes never alias caller memory: Save clones its input and Get
// clones its output, so callers may reuse or mutate their buffers freely.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[memKey][]byte
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[memKey][]byte)}
}

// Save stores the artifact bytes, replacing any previous version.
func (s *InMemoryStore) Save(runID, artifactID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[memKey{runID, artifactID}] = bytes.Clone(data)
	return nil
}

// Get returns the artifact bytes or ErrNotFound.
func (s *InMemoryStore) Get(runID, artifactID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.entries[memKey{runID, artifactID}]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(data), nil
}

// List returns the artifact ids stored for the run, sorted, matching the
// lexicographic order FileStore.List reads from the filesystem. An unknown
// run yields an empty slice, not an error.
func (s *InMemoryStore) List(runID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, 1)
	for key := range s.entries {
		if key.runID == runID {
			ids = append(ids, key.artifactID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes the artifact or returns ErrNotFound.
func (s *InMemoryStore) Delete(runID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey{runID, artifactID}
	if _, ok := s.entries[key]; !ok {
		return ErrNotFound
	}
	delete(s.entries, key)
	return nil
}
