package core

// ArtifactStore defines the interface for artifact persistence.
// Implementations should be thread-safe and scope artifacts by run
// identifier. Short method names (Save/Get/List/Delete) keep parity across
// store implementations.
type ArtifactStore interface {
	Save(runID, artifactID string, data []byte) error
	Get(runID, artifactID string) ([]byte, error)
	List(runID string) ([]string, error)
	Delete(runID, artifactID string) error
}
