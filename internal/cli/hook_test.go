package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/dialectic/internal/artifact"
	"github.com/thruflo/dialectic/internal/state"
	"github.com/thruflo/dialectic/internal/testutil"
)

const stopPayload = `{"session_id":"abc","transcript_path":"/tmp/t.jsonl","hook_event_name":"Stop","stop_hook_active":true}`

func TestHook_NoSessionAllows(t *testing.T) {
	setupProject(t)

	stdout, stderr, err := runCLI(t, stopPayload, "hook")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestHook_ContinueBlocks(t *testing.T) {
	dir := setupProject(t)
	testutil.WriteState(t, projectStore(dir), testutil.SampleReasoningState(0, state.DecisionNone))

	stdout, stderr, err := runCLI(t, stopPayload, "hook")
	requireExitCode(t, err, 2)

	assert.Contains(t, stdout, bannerRule)
	assert.Contains(t, stdout, "  Dialectic iteration 1 / 5 (floor: 3)")
	assert.Contains(t, stderr, "Continue the dialectic reasoning cycle")
	assert.Contains(t, stderr, ".claude/dialectic/state.json")
	assert.Contains(t, stderr, ".claude/dialectic/prompt.md")
	testutil.AssertIteration(t, projectStore(dir), 1)

	_, err = os.Stat(filepath.Join(dir, HookLogPath))
	assert.NoError(t, err, "hook logs to its own file")
}

func TestHook_ConcludeBelowFloor(t *testing.T) {
	dir := setupProject(t)
	testutil.WriteState(t, projectStore(dir), testutil.SampleReasoningState(1, state.DecisionConclude))

	stdout, _, err := runCLI(t, "", "hook")
	requireExitCode(t, err, 2)

	assert.Contains(t, stdout, "CONCLUDE overridden")
	testutil.AssertDecision(t, projectStore(dir), state.DecisionContinue)
	testutil.AssertIteration(t, projectStore(dir), 2)
}

func TestHook_FinishPreservesAndRemoves(t *testing.T) {
	dir := setupProject(t)
	store := projectStore(dir)
	testutil.WriteState(t, store, testutil.SampleDistillationState(3, state.DecisionConclude))
	testutil.WriteArtifacts(t, store)

	stdout, stderr, err := runCLI(t, stopPayload, "hook")
	require.NoError(t, err)
	assert.Empty(t, stderr)

	dest := filepath.Join(dir, state.DefaultOutputDir, testutil.SampleSessionID)
	assert.Contains(t, stdout, "Artifacts preserved to "+dest)
	testutil.AssertStateRemoved(t, store)

	m, err := artifact.ReadManifest(dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"memo.md", "spine.md", "history.md"}, m.Files)
}

func TestHook_CorruptStateAllows(t *testing.T) {
	dir := setupProject(t)
	store := projectStore(dir)

	for _, content := range []string{"not json at all", "null"} {
		testutil.WriteRawState(t, store, content)

		_, stderr, err := runCLI(t, "", "hook")
		require.NoError(t, err, "content %q", content)
		assert.Empty(t, stderr)
		assert.Equal(t, content, testutil.ReadFile(t, store.Dir(), state.StateFile), "record left untouched")
	}
}

func TestHook_Native(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	dir := setupProject(t)
	testutil.WriteState(t, projectStore(dir), testutil.SampleReasoningState(0, state.DecisionNone))

	script := filepath.Join(t.TempDir(), "stop-hook.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat >/dev/null\necho native banner\necho native directive >&2\nexit 2\n"), 0o755))

	stdout, stderr, err := runCLI(t, stopPayload, "hook", "--native", script)
	requireExitCode(t, err, 2)
	assert.Equal(t, "native banner\n", stdout)
	assert.Equal(t, "native directive\n", stderr)

	// The native hook owns the turn; the in-process controller did nothing.
	testutil.AssertIteration(t, projectStore(dir), 0)
}

func TestHook_NativeMissingFallsBack(t *testing.T) {
	dir := setupProject(t)
	testutil.WriteState(t, projectStore(dir), testutil.SampleReasoningState(0, state.DecisionNone))

	_, _, err := runCLI(t, "", "hook", "--native", filepath.Join(dir, "missing.sh"))
	requireExitCode(t, err, 2)
	testutil.AssertIteration(t, projectStore(dir), 1)
}

func TestHook_WriteFailureIsFatal(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	dir := setupProject(t)
	store := projectStore(dir)
	testutil.WriteState(t, store, testutil.SampleReasoningState(0, state.DecisionNone))
	require.NoError(t, os.Chmod(store.StatePath(), 0o444))
	t.Cleanup(func() { _ = os.Chmod(store.StatePath(), 0o644) })

	_, _, err := runCLI(t, "", "hook")
	require.Error(t, err)
	var exitErr *ExitError
	assert.NotErrorAs(t, err, &exitErr)
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "exit status 2", (&ExitError{Code: 2}).Error())
}

func TestWriteBanner(t *testing.T) {
	var buf bytes.Buffer
	writeBanner(&buf, nil)
	assert.Empty(t, buf.String())

	writeBanner(&buf, []string{"one", "two"})
	assert.Equal(t, "\n"+bannerRule+"\n  one\n  two\n"+bannerRule+"\n", buf.String())
}
