package installer

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/uvm/pkg/errors"
)

// Runner executes external tools. Implementations run name with args in
// dir and return a coded EXTRACTION_FAILED error when the tool exits
// non-zero.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// CommandError describes a tool that exited unsuccessfully.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Name, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// ExecRunner runs tools with os/exec. Cancelling the context kills the
// child process.
type ExecRunner struct {
	Logger *log.Logger
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Debug("exec", "cmd", name, "args", strings.Join(args, " "), "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeCancelled, ctx.Err(), "%s interrupted", name)
	}
	cerr := &CommandError{Name: name, Args: args, ExitCode: -1, Stderr: strings.TrimSpace(stderr.String())}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		cerr.ExitCode = exitErr.ExitCode()
	} else {
		cerr.Stderr = err.Error()
	}
	return errors.Wrap(errors.ErrCodeExtractionFailed, cerr, "run %s", name)
}
