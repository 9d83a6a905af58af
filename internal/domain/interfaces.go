package domain

import "context"

// CommandRunner executes external tools as blocking subprocesses. It is
// the seam that lets the typst/pandoc clients run without the binaries
// installed (tests substitute a fake).
type CommandRunner interface {
	// Run executes name with args in dir (empty dir means the current
	// directory) and returns stdout. A nonzero exit yields a *ToolError
	// carrying the captured stderr.
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)

	// RunStdin is Run with the given input piped to the process.
	RunStdin(ctx context.Context, dir, stdin, name string, args ...string) ([]byte, error)

	// LookPath reports the full path of name, or ErrToolNotFound.
	LookPath(name string) (string, error)
}
