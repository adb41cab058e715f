package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/thruflo/dialectic/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

// HookLogPath is where the hook logs, relative to the project root. It sits
// outside the state directory so it survives session removal.
const HookLogPath = ".claude/dialectic.log"

// ExitError ends the process with Code without printing anything. The hook
// uses it to report a blocked stop.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var (
	logLevel string
	logFile  string

	// projectDir overrides the working directory. Tests set it.
	projectDir string

	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "dialectic",
	Short: "Loop controller for dialectic reasoning sessions",
	Long: `Dialectic drives an agent through a bounded reasoning loop followed by a
distillation loop. Register 'dialectic hook' as a Stop hook: each time the
agent tries to stop, the hook decides whether to let it or to hand it the
next instruction.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("dialectic version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Append logs to this file (the hook defaults to "+HookLogPath+")")
}

// Execute runs the root command.
func Execute() error {
	defer closeLog()
	return rootCmd.Execute()
}

func projectRoot() (string, error) {
	if projectDir != "" {
		return projectDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)

	path := logFile
	if path == "" && cmd.Name() == "hook" {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		path = filepath.Join(root, HookLogPath)
	}
	if path == "" {
		logging.SetOutput(logging.NewOutput(cmd.ErrOrStderr()))
		return nil
	}

	closeLog()
	out, closer, err := logging.OpenFile(path)
	if err != nil {
		if logFile == "" {
			// The hook must still answer when its default log is unwritable.
			logging.SetOutput(logging.Discard())
			return nil
		}
		return err
	}
	logging.SetOutput(out)
	logCloser = closer
	return nil
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}
