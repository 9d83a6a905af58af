package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/typdocs/typdocs-go/internal/domain"
)

// Ensure ExecRunner implements domain.CommandRunner
var _ domain.CommandRunner = (*ExecRunner)(nil)

// ExecRunner runs external tools via os/exec. Calls block until the
// process exits; cancellation comes from the context only.
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and returns its stdout.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return r.RunStdin(ctx, dir, "", name, args...)
}

// RunStdin executes the command with stdin piped in and returns its stdout.
func (r *ExecRunner) RunStdin(ctx context.Context, dir, stdin, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, domain.NewToolError(name, args, "", domain.ErrToolNotFound)
		}
		return nil, domain.NewToolError(name, args, stderr.String(), err)
	}
	return stdout.Bytes(), nil
}

// LookPath reports the resolved path of name.
func (r *ExecRunner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}
	return path, nil
}
