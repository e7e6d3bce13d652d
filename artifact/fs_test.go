package artifact

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/demindx/reportpipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ core.ArtifactStore = (*FileStore)(nil)

func TestFileStore_SaveGet(t *testing.T) {
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Save("run-1", "report.md", []byte("# hi")))

	data, err := store.Get("run-1", "report.md")
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(data))
}

func TestFileStore_GetMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Get("run-1", "nope.md")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStore_ListAndDelete(t *testing.T) {
	store := NewFileStore(t.TempDir())
	require.NoError(t, store.Save("run-1", "a.md", []byte("a")))
	require.NoError(t, store.Save("run-1", "b.md", []byte("b")))

	ids, err := store.List("run-1")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	require.NoError(t, store.Delete("run-1", "a.md"))
	assert.True(t, errors.Is(store.Delete("run-1", "a.md"), ErrNotFound))

	ids, err = store.List("run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md"}, ids)
}

func TestFileStore_ListUnknownRun(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ids, err := store.List("nothing")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_Path(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	assert.Equal(t, filepath.Join(dir, "run-1", "report.md"), store.Path("run-1", "report.md"))
}
