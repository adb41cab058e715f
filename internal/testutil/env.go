package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/thruflo/dialectic/internal/state"
)

// DefaultTestBuffer is subtracted from the test deadline so cleanup can run.
const DefaultTestBuffer = 5 * time.Second

// SetupProject creates a temporary project root with an empty
// .claude/dialectic directory. Returns the root and a Store using the
// fixture clock.
func SetupProject(t *testing.T) (string, *state.Store) {
	t.Helper()

	root := t.TempDir()
	store := state.NewStore(root, state.WithClock(SampleTime))
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	return root, store
}

// WriteState persists st through the store.
func WriteState(t *testing.T, store *state.Store, st *state.State) {
	t.Helper()
	require.NoError(t, store.Save(st))
}

// WriteRawState writes content to state.json verbatim.
func WriteRawState(t *testing.T, store *state.Store, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.StatePath(), []byte(content), 0o644))
}

// WriteArtifacts writes the sample content for each named artifact into the
// state directory. With no names, every sample artifact is written.
func WriteArtifacts(t *testing.T, store *state.Store, names ...string) {
	t.Helper()

	samples := SampleArtifacts()
	if len(names) == 0 {
		for name := range samples {
			names = append(names, name)
		}
	}
	for _, name := range names {
		path, ok := store.ArtifactPath(name)
		require.True(t, ok, "unknown artifact %q", name)
		content, ok := samples[name]
		require.True(t, ok, "no sample content for %q", name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// ListDir returns the sorted file names in dir, or nil when it does not exist.
func ListDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// ReadFile returns the content of base/rel.
func ReadFile(t *testing.T, base, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(base, rel))
	require.NoError(t, err)
	return string(data)
}

// ContextWithTestDeadline returns a context that ends DefaultTestBuffer
// before the test deadline, or after fallback when the test has none.
func ContextWithTestDeadline(t *testing.T, fallback time.Duration) (context.Context, context.CancelFunc) {
	t.Helper()

	if deadline, ok := t.Deadline(); ok {
		adjusted := deadline.Add(-DefaultTestBuffer)
		if adjusted.After(time.Now()) {
			return context.WithDeadline(context.Background(), adjusted)
		}
	}
	return context.WithTimeout(context.Background(), fallback)
}
