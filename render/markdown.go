// Package render implements the Renderer capability: it persists merged
// report text through an ArtifactStore and returns a location reference.
package render

import (
	"context"
	"fmt"
	"time"
)

// pather is implemented by stores that can reveal a concrete location for a
// stored artifact (e.g. artifact.FileStore). When available, that location
// becomes the artifact reference; otherwise a store URI is synthesized.
type pather interface {
	Path(runID, artifactID string) string
}

// store mirrors the save side of core.ArtifactStore. Declared locally so the
// package depends only on what it uses.
type store interface {
	Save(runID, artifactID string, data []byte) error
}

// Options configures a Markdown renderer.
type Options struct {
	// FileName of the rendered report within the run's artifact scope.
	FileName string
}

// Markdown renders report text as a markdown document with a generated
// header and saves it via the configured artifact store.
type Markdown struct {
	store    store
	fileName string
}

// NewMarkdown creates a renderer persisting into the given store.
func NewMarkdown(s store, optFns ...func(o *Options)) *Markdown {
	opts := Options{FileName: "report.md"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Markdown{store: s, fileName: opts.FileName}
}

// Render implements core.Renderer.
func (m *Markdown) Render(_ context.Context, runID, text string) (string, error) {
	doc := fmt.Sprintf("# Report\n\n_Generated %s_\n\n%s\n",
		time.Now().UTC().Format(time.RFC3339), text)

	if err := m.store.Save(runID, m.fileName, []byte(doc)); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}

	if p, ok := m.store.(pather); ok {
		return p.Path(runID, m.fileName), nil
	}
	return fmt.Sprintf("artifact://%s/%s", runID, m.fileName), nil
}

// FileName returns the artifact id the renderer writes, for callers that
// fetch the report back from the store.
func (m *Markdown) FileName() string { return m.fileName }
