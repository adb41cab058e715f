package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/thruflo/dialectic/internal/loop"
	"github.com/thruflo/dialectic/internal/state"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	loopStyles = map[state.Loop]lipgloss.Style{
		state.LoopReasoning:            lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
		state.LoopAwaitingDistillation: lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		state.LoopDistillation:         lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true),
	}
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active session",
	Long: `Shows the loop, counters, phase, confidence and thesis of the active
dialectic session.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	st, err := state.NewStore(root).Load()
	if err != nil {
		return err
	}
	if st == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No active dialectic session.")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderStatus(st))
	return nil
}

func renderStatus(st *state.State) string {
	var rows []string
	add := func(label, value string) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value))
	}

	loopStyle, ok := loopStyles[st.Loop]
	if !ok {
		loopStyle = valueStyle
	}
	add("Loop", loopStyle.Render(string(st.Loop)))
	add("Iteration", valueStyle.Render(fmt.Sprintf("%d / %d (floor %d)", st.Iteration, st.MaxIterations, st.MinIterations)))
	if st.Loop != state.LoopReasoning {
		add("Distillation", valueStyle.Render(fmt.Sprintf("pass %d / %d (floor %d)",
			st.DistillationIteration, st.DistillationMax, st.DistillationMin)))
	}
	add("Decision", valueStyle.Render(st.Decision.String()))
	if phase := currentPhase(st); phase != "" {
		add("Phase", valueStyle.Render(phase))
	}
	add("Confidence", renderConfidence(st.Thesis.Confidence))
	if thesis := st.Thesis.Preview(); thesis != "" {
		add("Thesis", valueStyle.Render(thesis))
	}
	add("Entry", valueStyle.Render(string(st.DistillationEntry)))
	add("Preserving", valueStyle.Render(strings.Join(st.KeepArtifacts, ", ")+" -> "+st.OutputDir))

	title := titleStyle.Render("Dialectic session " + st.SessionID)
	body := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	view := lipgloss.JoinVertical(lipgloss.Left, title, body)

	if st.Loop == state.LoopAwaitingDistillation {
		view = lipgloss.JoinVertical(lipgloss.Left, view, mutedStyle.Render("Run `dialectic distill` to begin distillation."))
	}
	return view
}

func currentPhase(st *state.State) string {
	if st.Loop == state.LoopDistillation {
		return st.DistillationPhase
	}
	return st.Phase
}

// renderConfidence highlights axes below the advisory floor.
func renderConfidence(c *state.Confidence) string {
	if c == nil {
		return mutedStyle.Render("n/a")
	}
	text := c.String()
	_, e, cc := c.Axes()
	if e < loop.DefaultAdvisoryFloor || cc < loop.DefaultAdvisoryFloor {
		return warnStyle.Render(text + " (low E or C)")
	}
	return valueStyle.Render(text)
}
