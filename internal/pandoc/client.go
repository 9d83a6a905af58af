package pandoc

import (
	"context"
	"strings"

	"github.com/typdocs/typdocs-go/internal/domain"
	"github.com/typdocs/typdocs-go/internal/utils"
)

// Client wraps the pandoc binary.
type Client struct {
	bin    string
	runner domain.CommandRunner
	log    *utils.Logger
}

// NewClient creates a pandoc client. bin may be a bare name or a path.
func NewClient(bin string, runner domain.CommandRunner, log *utils.Logger) *Client {
	if bin == "" {
		bin = "pandoc"
	}
	return &Client{
		bin:    bin,
		runner: runner,
		log:    log.WithTool("pandoc"),
	}
}

// Bin returns the configured binary name
func (c *Client) Bin() string {
	return c.bin
}

// Convert converts file from typst to GitHub-flavored markdown. The
// conversion runs with dir as working directory so relative imports in
// the source resolve the same way typst resolves them.
func (c *Client) Convert(ctx context.Context, dir, file string) (string, error) {
	args := []string{"--from", "typst", "--to", "gfm", file}
	c.log.Debug().Str("dir", dir).Strs("args", args).Msg("converting")

	out, err := c.runner.Run(ctx, dir, c.bin, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Version returns the first line of pandoc's version output.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "", c.bin, "--version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}
