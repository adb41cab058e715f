package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
}

func writeStateFile(t *testing.T, store *Store, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.StatePath(), []byte(content), 0o644))
}

func TestStore_Paths(t *testing.T) {
	t.Parallel()

	store := NewStore("/work/project")
	assert.Equal(t, filepath.Join("/work/project", ".claude", "dialectic"), store.Dir())
	assert.Equal(t, filepath.Join("/work/project", ".claude", "dialectic", "state.json"), store.StatePath())

	memo, ok := store.ArtifactPath("memo")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(store.Dir(), "memo.md"), memo)

	_, ok = store.ArtifactPath("nope")
	assert.False(t, ok)
}

func TestStore_Load_Missing(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	st, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, st)
	assert.False(t, store.Exists())
}

func TestStore_Load_Corrupt(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	writeStateFile(t, store, `{"loop": "reasoning", "iteration": `)

	st, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestStore_Load_WrongShape(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	for _, content := range []string{`["not", "an", "object"]`, `null`, `"reasoning"`} {
		writeStateFile(t, store, content)

		st, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, st, "content %q", content)
	}
}

func TestStore_Load_QuotedAxisKeepsSession(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), WithClock(fixedClock))
	writeStateFile(t, store, `{"decision": "elevate", "iteration": 2, "session_id": "s-1",
  "thesis": {"current": "x", "confidence": {"R": 0.6, "E": "0.2", "C": 0.5}}}`)

	st, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, DecisionElevate, st.Decision)
	assert.Equal(t, "s-1", st.SessionID)
	assert.InDelta(t, 0.2, st.Thesis.Confidence.Evidence(), 1e-9)
}

func TestStore_Load_Hydrates(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), WithClock(fixedClock))
	writeStateFile(t, store, `{"decision": "conclude", "iteration": 1}`)

	st, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, LoopReasoning, st.Loop)
	assert.Equal(t, DecisionConclude, st.Decision)
	assert.Equal(t, 1, st.Iteration)
	assert.Equal(t, DefaultMinIterations, st.MinIterations)
	assert.Contains(t, st.SessionID, "20261018-093000-")
}

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), WithClock(fixedClock))
	st := &State{
		Loop:      LoopReasoning,
		Decision:  DecisionContinue,
		Iteration: 2,
		Thesis: Thesis{
			Current:    "Demand is inelastic in the short run",
			Confidence: AxesConfidence(0.6, 0.45, 0.7),
		},
		SessionID: "s-1",
	}
	st.Hydrate(fixedClock())

	require.NoError(t, store.Save(st))
	assert.True(t, store.Exists())

	got, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, st.Iteration, got.Iteration)
	assert.Equal(t, st.Decision, got.Decision)
	assert.Equal(t, st.Thesis.Current, got.Thesis.Current)
	assert.Equal(t, "R=0.60 E=0.45 C=0.70", got.Thesis.Confidence.String())
	assert.Equal(t, "s-1", got.SessionID)
}

func TestStore_SaveRewritesWholeFile(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), WithClock(fixedClock))
	writeStateFile(t, store, `{"iteration": 1, "scratch": {"notes": ["a"]}, "session_id": "keep"}`)

	st, err := store.Load()
	require.NoError(t, err)
	st.Iteration = 2
	require.NoError(t, store.Save(st))

	data, err := os.ReadFile(store.StatePath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scratch"`)
	assert.Contains(t, string(data), `"iteration": 2`)
	assert.NotContains(t, string(data), `"iteration": 1`)
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	writeStateFile(t, store, `{}`)
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "memo.md"), []byte("memo"), 0o644))

	require.NoError(t, store.Remove())
	_, err := os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(err))

	// Removing again is a no-op.
	require.NoError(t, store.Remove())
}

func TestStore_Save_FailsOnUnwritableDir(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	// A regular file where the .claude directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(base, ".claude"), []byte("x"), 0o644))

	store := NewStore(base)
	err := store.Save(&State{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create state directory")
}
