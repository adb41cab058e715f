package loop

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/dialectic/internal/archive"
	"github.com/thruflo/dialectic/internal/artifact"
	"github.com/thruflo/dialectic/internal/logging"
	"github.com/thruflo/dialectic/internal/state"
	"github.com/thruflo/dialectic/internal/testutil"
)

type fakeStore struct {
	st      *state.State
	loadErr error
	saveErr error
	saved   []*state.State
	removed bool
	calls   []string
}

func (f *fakeStore) Load() (*state.State, error) {
	f.calls = append(f.calls, "load")
	return f.st, f.loadErr
}

func (f *fakeStore) Save(st *state.State) error {
	f.calls = append(f.calls, "save")
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *st
	f.saved = append(f.saved, &cp)
	return nil
}

func (f *fakeStore) Remove() error {
	f.calls = append(f.calls, "remove")
	f.removed = true
	return nil
}

type fakePreserver struct {
	store *fakeStore
	err   error
}

func (f *fakePreserver) Preserve(st *state.State) (artifact.Result, error) {
	f.store.calls = append(f.store.calls, "preserve")
	if f.err != nil {
		return artifact.Result{}, f.err
	}
	return artifact.Result{Destination: "/out/" + st.SessionID}, nil
}

func newFakeRunner(st *state.State) (*Runner, *fakeStore, *fakePreserver) {
	store := &fakeStore{st: st}
	pres := &fakePreserver{store: store}
	r := NewRunner(RunnerOptions{Store: store, Preserver: pres, Logger: logging.Nop()})
	return r, store, pres
}

func TestRunner_NoSession(t *testing.T) {
	t.Parallel()

	r, store, _ := newFakeRunner(nil)
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictAllow, out.Verdict)
	assert.Equal(t, []string{"load"}, store.calls)
}

func TestRunner_LoadErrorAllows(t *testing.T) {
	t.Parallel()

	r, store, _ := newFakeRunner(nil)
	store.loadErr = errors.New("permission denied")
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictAllow, out.Verdict)
	assert.Empty(t, store.saved)
}

func TestRunner_PersistsBlockedTurn(t *testing.T) {
	t.Parallel()

	r, store, _ := newFakeRunner(testutil.SampleReasoningState(1, state.DecisionConclude))
	out, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, VerdictBlock, out.Verdict)
	require.Len(t, store.saved, 1)
	assert.Equal(t, 2, store.saved[0].Iteration)
	assert.Equal(t, state.DecisionContinue, store.saved[0].Decision)
	assert.False(t, store.removed)
}

func TestRunner_SaveErrorIsFatal(t *testing.T) {
	t.Parallel()

	r, store, _ := newFakeRunner(testutil.SampleReasoningState(1, state.DecisionNone))
	store.saveErr = errors.New("disk full")
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunner_AwaitingIsUntouched(t *testing.T) {
	t.Parallel()

	r, store, _ := newFakeRunner(testutil.SampleAwaitingState())
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictAllow, out.Verdict)
	assert.Equal(t, []string{"load"}, store.calls)
}

func TestRunner_FinishPreservesBeforeRemoving(t *testing.T) {
	t.Parallel()

	r, store, _ := newFakeRunner(testutil.SampleDistillationState(3, state.DecisionConclude))
	out, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, VerdictAllow, out.Verdict)
	assert.Equal(t, []string{"load", "preserve", "remove"}, store.calls)
	assert.Equal(t, "/out/"+testutil.SampleSessionID, out.Preserved)
	assert.Contains(t, out.Summary, "Artifacts preserved to /out/"+testutil.SampleSessionID)
}

func TestRunner_PreserveErrorKeepsState(t *testing.T) {
	t.Parallel()

	r, store, pres := newFakeRunner(testutil.SampleDistillationState(3, state.DecisionConclude))
	pres.err = errors.New("read-only filesystem")
	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to preserve artifacts")
	assert.False(t, store.removed)
}

func TestRunner_Filesystem_FinishedSession(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.ContextWithTestDeadline(t, 30*time.Second)
	defer cancel()

	root, store := testutil.SetupProject(t)
	st := testutil.SampleDistillationState(3, state.DecisionConclude)
	testutil.WriteState(t, store, st)
	testutil.WriteArtifacts(t, store)

	r := NewRunner(RunnerOptions{
		Store:     store,
		Preserver: artifact.NewPreserver(store.Dir(), root, artifact.WithClock(testutil.SampleTime), artifact.WithLogger(logging.Nop())),
		Archiver:  archive.NewRecorder(root),
		Logger:    logging.Nop(),
	})
	out, err := r.Run(ctx)
	require.NoError(t, err)

	dest := filepath.Join(root, state.DefaultOutputDir, testutil.SampleSessionID)
	assert.Equal(t, VerdictAllow, out.Verdict)
	assert.Equal(t, dest, out.Preserved)
	testutil.AssertStateRemoved(t, store)

	// Default keep set is memo, spine and history.
	assert.Equal(t, []string{"history.md", artifact.ManifestFile, "memo.md", "spine.md"}, testutil.ListDir(t, dest))
	assert.Equal(t, testutil.SampleArtifacts()["memo"], testutil.ReadFile(t, dest, "memo.md"))

	idx, err := archive.Open(archive.IndexPath(root, state.DefaultOutputDir))
	require.NoError(t, err)
	defer idx.Close()
	entries, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testutil.SampleSessionID, entries[0].SessionID)
}

func TestRunner_Filesystem_ConcludeBelowFloorKeepsEverything(t *testing.T) {
	t.Parallel()

	root, store := testutil.SetupProject(t)
	testutil.WriteState(t, store, testutil.SampleDistillationState(1, state.DecisionConclude))
	testutil.WriteArtifacts(t, store, "memo")

	r := NewRunner(RunnerOptions{
		Store:     store,
		Preserver: artifact.NewPreserver(store.Dir(), root),
		Logger:    logging.Nop(),
	})
	out, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, VerdictBlock, out.Verdict)
	assert.Equal(t, DirectiveAdversarialPass, out.Directive.Kind)
	testutil.AssertStatePresent(t, store)
	testutil.AssertDecision(t, store, state.DecisionNone)
	assert.Equal(t, 2, testutil.LoadState(t, store).DistillationIteration)
	assert.Nil(t, testutil.ListDir(t, filepath.Join(root, state.DefaultOutputDir)))
}

func TestRunner_Filesystem_PreservationDisabled(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.ContextWithTestDeadline(t, 30*time.Second)
	defer cancel()

	root, store := testutil.SetupProject(t)
	st := testutil.SampleDistillationState(2, state.DecisionConclude)
	st.KeepArtifacts = state.ArtifactSet{state.ArtifactsNone}
	testutil.WriteState(t, store, st)
	testutil.WriteArtifacts(t, store)

	r := NewRunner(RunnerOptions{
		Store:     store,
		Preserver: artifact.NewPreserver(store.Dir(), root),
		Archiver:  archive.NewRecorder(root),
		Logger:    logging.Nop(),
	})
	out, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, VerdictAllow, out.Verdict)
	assert.Empty(t, out.Preserved)
	assert.Contains(t, out.Summary, "Artifact preservation disabled")
	testutil.AssertStateRemoved(t, store)
	assert.Nil(t, testutil.ListDir(t, filepath.Join(root, state.DefaultOutputDir)))
}

func TestRunner_Filesystem_CorruptStateAllows(t *testing.T) {
	t.Parallel()

	_, store := testutil.SetupProject(t)
	testutil.WriteRawState(t, store, "{not json")

	r := NewRunner(RunnerOptions{Store: store, Preserver: artifact.NewPreserver(store.Dir(), t.TempDir()), Logger: logging.Nop()})
	out, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictAllow, out.Verdict)
	assert.Equal(t, "{not json", testutil.ReadFile(t, store.Dir(), state.StateFile))
}
