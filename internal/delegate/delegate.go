// Package delegate hands a hook turn to an equivalent native hook program.
// The program owns the turn entirely: its stdio and exit status are passed
// through unchanged.
package delegate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ErrEmptyCommand is returned when no program is given.
var ErrEmptyCommand = errors.New("delegate command cannot be empty")

// Run executes command[0] with the remaining elements as arguments, wiring
// the given streams to the child. The child's exit status is returned as is.
// A non-nil error means the program could not be started.
func Run(ctx context.Context, command []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	if len(command) == 0 || command[0] == "" {
		return -1, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = os.Environ()

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("failed to run %s: %w", command[0], err)
}
