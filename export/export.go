// Package export runs the external tools applied to a rendered deck: the
// configured polisher command and LibreOffice for PDF conversion. Both run
// under a timeout; neither touches the deck when it fails.
package export

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrSkipped is returned by PDFConverter.Convert when conversion is
// disabled through the environment.
var ErrSkipped = errors.New("pdf conversion skipped")

// Runner runs an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CommandError is a failed external command.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	if len(out) > 500 {
		out = out[:500] + "..."
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, out)
}

func (e *CommandError) Unwrap() error { return e.Err }
