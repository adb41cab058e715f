package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thruflo/dialectic/internal/config"
	"github.com/thruflo/dialectic/internal/logging"
	"github.com/thruflo/dialectic/internal/state"
)

// HookCommand is the command registered by --install-hook.
const HookCommand = "dialectic hook"

var (
	initThesis      string
	initMin         int
	initMax         int
	initDistillMin  int
	initDistillMax  int
	initEntry       string
	initKeep        string
	initOutput      string
	initForce       bool
	initInstallHook bool
)

// now is the clock used for new sessions. Tests replace it.
var now = time.Now

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Start a dialectic session",
	Long: `Creates .claude/dialectic/state.json for a new reasoning session.

Defaults come from .claude/dialectic.yaml when present; flags override them.
An active session is never replaced unless --force is given.

Examples:
  dialectic init --thesis "Zoning drives housing prices"
  dialectic init --min 2 --max 6 --entry direct
  dialectic init --keep all --output notes/dialectic
  dialectic init --install-hook`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initThesis, "thesis", "", "Initial working thesis")
	initCmd.Flags().IntVar(&initMin, "min", 0, "Reasoning iteration floor")
	initCmd.Flags().IntVar(&initMax, "max", 0, "Reasoning iteration ceiling")
	initCmd.Flags().IntVar(&initDistillMin, "distill-min", 0, "Distillation pass floor")
	initCmd.Flags().IntVar(&initDistillMax, "distill-max", 0, "Distillation pass ceiling")
	initCmd.Flags().StringVar(&initEntry, "entry", "", "Distillation entry strategy (await or direct)")
	initCmd.Flags().StringVar(&initKeep, "keep", "", `Artifacts to preserve: comma-separated names, "all" or "none"`)
	initCmd.Flags().StringVar(&initOutput, "output", "", "Directory for preserved artifacts")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Replace an active session")
	initCmd.Flags().BoolVar(&initInstallHook, "install-hook", false,
		"Register '"+HookCommand+"' as a Stop hook in .claude/settings.json")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyInitFlags(cmd, cfg)
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if initInstallHook {
		added, err := config.InstallStopHook(root, HookCommand)
		if err != nil {
			return err
		}
		if added {
			fmt.Fprintf(out, "Registered Stop hook in %s\n", config.SettingsPath)
		} else {
			fmt.Fprintf(out, "Stop hook already registered in %s\n", config.SettingsPath)
		}
	}

	store := state.NewStore(root)
	if store.Exists() {
		if !initForce {
			return fmt.Errorf("a dialectic session is already active in %s (use --force to replace it)", state.StateDirName)
		}
		if err := store.Remove(); err != nil {
			return err
		}
		logging.Info("replaced active session", "dir", store.Dir())
	}

	st := cfg.NewState()
	st.Thesis.Current = initThesis
	st.Hydrate(now())
	if err := store.Save(st); err != nil {
		return err
	}

	logging.Info("session initialized", "session", st.SessionID)
	fmt.Fprintf(out, "Dialectic session %s initialized.\n", st.SessionID)
	fmt.Fprintf(out, "  Reasoning:    %d-%d iterations\n", st.MinIterations, st.MaxIterations)
	fmt.Fprintf(out, "  Distillation: %d-%d passes (entry: %s)\n", st.DistillationMin, st.DistillationMax, st.DistillationEntry)
	fmt.Fprintf(out, "  Preserving:   %s -> %s\n", strings.Join(st.KeepArtifacts, ", "), st.OutputDir)
	return nil
}

// applyInitFlags overlays explicitly set flags onto the project config.
func applyInitFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("min") {
		cfg.Limits.MinIterations = initMin
	}
	if flags.Changed("max") {
		cfg.Limits.MaxIterations = initMax
	}
	if flags.Changed("distill-min") {
		cfg.Limits.DistillationMin = initDistillMin
	}
	if flags.Changed("distill-max") {
		cfg.Limits.DistillationMax = initDistillMax
	}
	if flags.Changed("entry") {
		cfg.Distillation.Entry = initEntry
	}
	if flags.Changed("keep") {
		cfg.Preservation.KeepArtifacts = config.ArtifactList(state.ParseArtifactSet(initKeep))
	}
	if flags.Changed("output") {
		cfg.Preservation.OutputDir = initOutput
	}
}
