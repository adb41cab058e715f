package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/dialectic/internal/state"
)

// LoadState loads the persisted state and fails the test if there is none.
func LoadState(t *testing.T, store *state.Store) *state.State {
	t.Helper()
	st, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, st, "no persisted state")
	return st
}

// AssertLoop asserts the persisted loop.
func AssertLoop(t *testing.T, store *state.Store, want state.Loop) {
	t.Helper()
	assert.Equal(t, want, LoadState(t, store).Loop, "loop mismatch")
}

// AssertDecision asserts the persisted decision.
func AssertDecision(t *testing.T, store *state.Store, want state.Decision) {
	t.Helper()
	assert.Equal(t, want, LoadState(t, store).Decision, "decision mismatch")
}

// AssertIteration asserts the persisted reasoning iteration.
func AssertIteration(t *testing.T, store *state.Store, want int) {
	t.Helper()
	assert.Equal(t, want, LoadState(t, store).Iteration, "iteration mismatch")
}

// AssertStatePresent asserts that the state directory still exists.
func AssertStatePresent(t *testing.T, store *state.Store) {
	t.Helper()
	_, err := os.Stat(store.StatePath())
	assert.NoError(t, err, "state file should exist")
}

// AssertStateRemoved asserts that the state directory is gone.
func AssertStateRemoved(t *testing.T, store *state.Store) {
	t.Helper()
	_, err := os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(err), "state directory should be removed")
}
