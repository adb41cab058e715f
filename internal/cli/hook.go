package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thruflo/dialectic/internal/archive"
	"github.com/thruflo/dialectic/internal/artifact"
	"github.com/thruflo/dialectic/internal/delegate"
	"github.com/thruflo/dialectic/internal/logging"
	"github.com/thruflo/dialectic/internal/loop"
	"github.com/thruflo/dialectic/internal/state"
)

const bannerRule = "================================================"

var hookNative string

// hookPayload is the JSON the host writes to the hook's stdin. The
// controller does not depend on it; it is only logged.
type hookPayload struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	HookEventName  string `json:"hook_event_name"`
	StopHookActive bool   `json:"stop_hook_active"`
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run one loop-controller turn (Stop hook entry point)",
	Long: `Runs one controller turn against .claude/dialectic/state.json.

Exit status 0 lets the agent stop. Exit status 2 blocks the stop; the next
instruction is written to stderr and a progress banner to stdout. Any other
failure exits 1.

Register it in .claude/settings.json (or run 'dialectic init --install-hook'):

  {"hooks": {"Stop": [{"hooks": [{"type": "command", "command": "dialectic hook"}]}]}}

With --native, the turn is handed to an equivalent hook program instead and
its output and exit status are passed through unchanged.`,
	Args: cobra.NoArgs,
	RunE: runHook,
}

func init() {
	hookCmd.Flags().StringVar(&hookNative, "native", "",
		"Delegate the turn to this hook program when it exists")
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if hookNative != "" {
		if info, err := os.Stat(hookNative); err == nil && !info.IsDir() {
			return runNativeHook(ctx, cmd)
		}
		logging.Warn("native hook not found, running in-process", "path", hookNative)
	}

	readPayload(cmd.InOrStdin())

	root, err := projectRoot()
	if err != nil {
		return err
	}

	store := state.NewStore(root)
	runner := loop.NewRunner(loop.RunnerOptions{
		Store:     store,
		Preserver: artifact.NewPreserver(store.Dir(), root, artifact.WithLogger(logging.Default())),
		Archiver:  archive.NewRecorder(root),
		Logger:    logging.Default(),
	})

	out, err := runner.Run(ctx)
	if err != nil {
		logging.Error("hook turn failed", "error", err)
		return err
	}

	writeBanner(cmd.OutOrStdout(), out.Summary)
	if out.Verdict == loop.VerdictBlock {
		fmt.Fprintln(cmd.ErrOrStderr(), out.Directive.Text)
		return &ExitError{Code: out.Verdict.ExitCode()}
	}
	return nil
}

func runNativeHook(ctx context.Context, cmd *cobra.Command) error {
	logging.Info("delegating turn to native hook", "path", hookNative)
	code, err := delegate.Run(ctx, []string{hookNative}, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// readPayload drains stdin so the host never blocks on a full pipe, and logs
// what it carried. Terminals are skipped.
func readPayload(r io.Reader) {
	if f, ok := r.(*os.File); ok {
		info, err := f.Stat()
		if err != nil || info.Mode()&os.ModeCharDevice != 0 {
			return
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		logging.Debug("failed to read hook payload", "error", err)
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return
	}

	var p hookPayload
	if err := json.Unmarshal(data, &p); err != nil {
		logging.Debug("ignoring unparseable hook payload", "error", err)
		return
	}
	logging.Debug("hook payload",
		"host_session", p.SessionID,
		"event", p.HookEventName,
		"stop_hook_active", p.StopHookActive)
}

// writeBanner prints the turn summary between rules. Nothing is printed for
// an empty summary.
func writeBanner(w io.Writer, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, bannerRule)
	for _, line := range lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w, bannerRule)
}
