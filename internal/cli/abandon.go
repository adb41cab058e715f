package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thruflo/dialectic/internal/archive"
	"github.com/thruflo/dialectic/internal/artifact"
	"github.com/thruflo/dialectic/internal/logging"
	"github.com/thruflo/dialectic/internal/state"
)

var (
	abandonForce    bool
	abandonPreserve bool
)

var abandonCmd = &cobra.Command{
	Use:   "abandon",
	Short: "Abandon the active session",
	Long: `Removes .claude/dialectic and everything in it, ending the session
without finishing the distillation loop.

Examples:
  dialectic abandon                # asks for confirmation
  dialectic abandon --force        # skip confirmation
  dialectic abandon --preserve     # copy artifacts to the output directory first`,
	Args: cobra.NoArgs,
	RunE: runAbandon,
}

func init() {
	abandonCmd.Flags().BoolVar(&abandonForce, "force", false,
		"Skip confirmation prompt")
	abandonCmd.Flags().BoolVar(&abandonPreserve, "preserve", false,
		"Preserve artifacts before removing the session")
	rootCmd.AddCommand(abandonCmd)
}

func runAbandon(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	store := state.NewStore(root)
	st, err := store.Load()
	if err != nil {
		return err
	}
	if st == nil {
		if !store.Exists() {
			fmt.Fprintln(out, "No active dialectic session.")
			return nil
		}
		// Unreadable state file: removing it is still allowed.
		st = &state.State{}
	}

	// Confirmation prompt (unless --force)
	if !abandonForce {
		fmt.Fprintf(out, "This will permanently remove %s", state.StateDirName)
		if st.SessionID != "" {
			fmt.Fprintf(out, " (session %s, %s, iteration %d)", st.SessionID, st.Loop, st.Iteration)
		}
		fmt.Fprintf(out, ".\n\nType 'yes' to confirm: ")

		response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.TrimSpace(response) != "yes" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if abandonPreserve && st.SessionID != "" {
		res, err := artifact.NewPreserver(store.Dir(), root, artifact.WithLogger(logging.Default())).Preserve(st)
		if err != nil {
			return fmt.Errorf("failed to preserve artifacts: %w", err)
		}
		if err := archive.NewRecorder(root).Archive(ctx, st, res); err != nil {
			return fmt.Errorf("failed to archive session: %w", err)
		}
		if !res.Disabled() {
			fmt.Fprintf(out, "Artifacts preserved to %s\n", res.Destination)
		}
	}

	if err := store.Remove(); err != nil {
		return err
	}
	logging.Info("session abandoned", "session", st.SessionID)
	fmt.Fprintln(out, "Session abandoned.")
	return nil
}
