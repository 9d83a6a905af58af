package typst

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/typdocs/typdocs-go/internal/domain"
	"github.com/typdocs/typdocs-go/internal/utils"
)

// Client wraps the typst binary. Every method is a blocking subprocess
// invocation; a nonzero exit surfaces typst's stderr verbatim through
// *domain.ToolError.
type Client struct {
	bin    string
	runner domain.CommandRunner
	log    *utils.Logger
}

// NewClient creates a typst client. bin may be a bare name or a path.
func NewClient(bin string, runner domain.CommandRunner, log *utils.Logger) *Client {
	if bin == "" {
		bin = "typst"
	}
	return &Client{
		bin:    bin,
		runner: runner,
		log:    log.WithTool("typst"),
	}
}

// Bin returns the configured binary name
func (c *Client) Bin() string {
	return c.bin
}

// Compile compiles file to the output pattern with the given root.
func (c *Client) Compile(ctx context.Context, file, output, root string) error {
	args := []string{"compile", file, output, "--root", root}
	c.log.Debug().Strs("args", args).Msg("compiling")
	_, err := c.runner.Run(ctx, "", c.bin, args...)
	return err
}

// QueryValues queries file for the given selector and returns the string
// values of the matched metadata elements.
func (c *Client) QueryValues(ctx context.Context, file, selector, root string) ([]string, error) {
	args := []string{"query", file, selector, "--field", "value", "--format", "json", "--root", root}
	c.log.Debug().Strs("args", args).Msg("querying")

	out, err := c.runner.Run(ctx, "", c.bin, args...)
	if err != nil {
		return nil, err
	}

	var values []string
	if err := json.Unmarshal(out, &values); err != nil {
		return nil, fmt.Errorf("unexpected typst query output: %w", err)
	}
	return values, nil
}

// Version returns the typst version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "", c.bin, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// LocalPackagesDir returns the platform-specific directory typst reads
// local packages from. See the typst packages repository README for the
// per-platform data dir rules.
func LocalPackagesDir() string {
	var dataDir string
	switch runtime.GOOS {
	case "windows":
		dataDir = os.Getenv("APPDATA")
	case "darwin":
		dataDir = utils.ExpandPath("~/Library/Application Support")
	default:
		dataDir = os.Getenv("XDG_DATA_HOME")
		if dataDir == "" {
			dataDir = utils.ExpandPath("~/.local/share")
		}
	}
	return filepath.Join(dataDir, "typst", "packages")
}
