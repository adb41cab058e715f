package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thruflo/dialectic/internal/logging"
	"github.com/thruflo/dialectic/internal/loop"
	"github.com/thruflo/dialectic/internal/state"
)

var distillCmd = &cobra.Command{
	Use:   "distill",
	Short: "Start the distillation loop for a finished reasoning session",
	Long: `Moves a session that is awaiting distillation into the first distillation
pass (phase spine_extraction) and prints the instruction for that pass.

Sessions configured with 'distillation.entry: direct' enter distillation on
their own and never need this command.`,
	Args: cobra.NoArgs,
	RunE: runDistill,
}

func init() {
	rootCmd.AddCommand(distillCmd)
}

func runDistill(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	store := state.NewStore(root)
	st, err := store.Load()
	if err != nil {
		return err
	}
	if st == nil {
		return errors.New("no active dialectic session")
	}

	next, out, err := loop.BeginDistillation(*st)
	if err != nil {
		return err
	}
	if err := store.Save(&next); err != nil {
		return err
	}

	logging.Info("distillation started", "session", next.SessionID)
	writeBanner(cmd.OutOrStdout(), out.Summary)
	fmt.Fprintln(cmd.OutOrStdout(), out.Directive.Text)
	return nil
}
