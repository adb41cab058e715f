package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/dialectic/internal/state"
	"github.com/thruflo/dialectic/internal/testutil"
)

// setupProject points the CLI at a fresh temporary project root.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	projectDir = dir
	t.Cleanup(func() { projectDir = "" })
	return dir
}

// resetFlags restores every flag to its default. Commands are package
// globals, so values and Changed bits otherwise leak between runs.
func resetFlags() {
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		reset(c.Flags())
	}
}

// runCLI executes the root command with args and returns what it wrote.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	resetFlags()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	closeLog()
	return stdout.String(), stderr.String(), err
}

func projectStore(dir string) *state.Store {
	return state.NewStore(dir, state.WithClock(testutil.SampleTime))
}

// setDecision plays the agent's part: it records a decision in state.json.
func setDecision(t *testing.T, dir string, d state.Decision) {
	t.Helper()
	store := projectStore(dir)
	st := testutil.LoadState(t, store)
	st.Decision = d
	testutil.WriteState(t, store, st)
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, code, exitErr.Code)
}
