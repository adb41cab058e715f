package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/thruflo/dialectic/internal/archive"
	"github.com/thruflo/dialectic/internal/config"
)

var sessionsOutput string

var headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")).Bold(true)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List preserved sessions",
	Long: `Lists finished sessions recorded in the archive index of the output
directory, most recent first.`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsOutput, "output", "",
		"Output directory to read (defaults to preservation.output_dir)")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	root, err := projectRoot()
	if err != nil {
		return err
	}

	outputDir := sessionsOutput
	if outputDir == "" {
		cfg, err := config.LoadConfig(root)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		outputDir = cfg.Preservation.OutputDir
	}

	out := cmd.OutOrStdout()
	path := archive.IndexPath(root, outputDir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "No preserved sessions.")
		return nil
	}

	idx, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer idx.Close()

	entries, err := idx.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No preserved sessions.")
		return nil
	}

	fmt.Fprintln(out, renderSessions(entries))
	return nil
}

func renderSessions(entries []archive.Entry) string {
	headers := []string{"SESSION", "PRESERVED", "ITER", "DISTILL", "CONFIDENCE", "FILES"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.SessionID,
			e.PreservedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", e.Iterations),
			fmt.Sprintf("%d", e.DistillationIterations),
			orNA(e.Confidence),
			strings.Join(e.Files, ","),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style.Width(widths[i]).Render(cell)
		}
		return strings.Join(parts, "  ")
	}

	lines := []string{line(headers, headerStyle)}
	for i, row := range rows {
		lines = append(lines, line(row, valueStyle))
		if thesis := entries[i].Thesis; thesis != "" {
			lines = append(lines, mutedStyle.Render("  "+thesis))
		}
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
