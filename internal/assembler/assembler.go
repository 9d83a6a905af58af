// Package assembler converts a Typst source file into markdown
// documentation. Tagged example regions are rendered to images through
// the typst binary, the prose is converted through pandoc, and image
// references are spliced into the result so examples show their visual
// output.
package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/typdocs/typdocs-go/internal/domain"
	"github.com/typdocs/typdocs-go/internal/pandoc"
	"github.com/typdocs/typdocs-go/internal/typst"
	"github.com/typdocs/typdocs-go/internal/utils"
)

// Options control a single assembly run.
type Options struct {
	// Root is the directory typst compiles from. Defaults to the source
	// file's parent. The source must live under it.
	Root string

	// AssetsDir receives the rendered images. Defaults to a
	// "<stem>-assets" sibling of the source file.
	AssetsDir string

	// Output is the markdown file to write. Defaults to the source path
	// with a .md extension.
	Output string

	// ImageName is the artifact name template; must contain "{n}".
	ImageName string

	// Labels are the showable labels marking example output. Empty means
	// the formatter's defaults.
	Labels []string

	// GitURL switches image references to distribution mode: links point
	// at the repository raw URL instead of a local relative path.
	GitURL string

	// DetectGitURL derives GitURL from the root's origin remote when
	// GitURL is empty.
	DetectGitURL bool

	// Force regenerates images even when artifacts already exist.
	Force bool

	// DryRun resolves paths and queries the document but renders nothing
	// and writes no output.
	DryRun bool

	// KeepBuildDir persists the scratch build directory for inspection.
	KeepBuildDir bool
}

// Assembler runs the md pipeline.
type Assembler struct {
	typst  *typst.Client
	pandoc *pandoc.Client
	log    *utils.Logger
}

// New creates an Assembler
func New(t *typst.Client, p *pandoc.Client, log *utils.Logger) *Assembler {
	return &Assembler{
		typst:  t,
		pandoc: p,
		log:    log.WithComponent("assembler"),
	}
}

// Assemble converts sourcePath to markdown and returns the output path.
func (a *Assembler) Assemble(ctx context.Context, sourcePath string, opts Options) (string, error) {
	source, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(source); err != nil {
		return "", err
	}
	log := a.log.WithFile(filepath.Base(source))

	root := opts.Root
	if root == "" {
		root = filepath.Dir(source)
	}
	if root, err = filepath.Abs(root); err != nil {
		return "", err
	}
	if !isUnder(root, filepath.Dir(source)) {
		return "", fmt.Errorf("%w: %s not in %s", domain.ErrSourceOutsideRoot, source, root)
	}

	assetsDir := opts.AssetsDir
	if assetsDir == "" {
		assetsDir = defaultAssetsDir(source)
	}
	if assetsDir, err = filepath.Abs(assetsDir); err != nil {
		return "", err
	}
	if !opts.DryRun {
		if err := os.MkdirAll(assetsDir, 0755); err != nil {
			return "", err
		}
	}

	output := opts.Output
	if output == "" {
		output = strings.TrimSuffix(source, filepath.Ext(source)) + ".md"
	}
	if output, err = filepath.Abs(output); err != nil {
		return "", err
	}
	if !opts.DryRun {
		if err := utils.EnsureDir(output); err != nil {
			return "", err
		}
	}

	imageName := opts.ImageName
	if imageName == "" {
		imageName = "example-{n}.png"
	}
	if !strings.Contains(imageName, "{n}") {
		return "", domain.NewValidationError("image_name", "must contain the {n} placeholder")
	}

	rawURL := ""
	if opts.GitURL != "" {
		if rawURL, err = RawContentURL(opts.GitURL); err != nil {
			return "", err
		}
	} else if opts.DetectGitURL {
		repoURL, err := DetectRepoURL(root)
		if err != nil {
			return "", err
		}
		if rawURL, err = RawContentURL(repoURL); err != nil {
			return "", err
		}
		log.Info().Str("url", repoURL).Msg("detected repository url")
	}

	bd, err := newBuildDir(source, opts.Labels, opts.KeepBuildDir)
	if err != nil {
		return "", err
	}
	defer bd.Cleanup()

	langs, err := a.runnableLangs(ctx, bd, root)
	if err != nil {
		return "", err
	}
	log.Debug().Strs("langs", langs).Msg("runnable language tags")

	if opts.DryRun {
		log.Info().
			Str("output", output).
			Str("assets", assetsDir).
			Str("images", imageName).
			Strs("langs", langs).
			Msg("dry run, nothing written")
		return output, nil
	}

	artifacts, err := a.generateImages(ctx, bd, assetsDir, imageName, root, opts.Force)
	if err != nil {
		return "", err
	}
	log.Info().Int("count", len(artifacts)).Str("dir", assetsDir).Msg("rendered examples")

	rel, err := filepath.Rel(root, source)
	if err != nil {
		return "", err
	}
	markdown, err := a.pandoc.Convert(ctx, root, rel)
	if err != nil {
		return "", err
	}

	prefix := resolveImagePrefix(assetsDir, output, root, rawURL)
	result := markdown
	count := 0
	if len(langs) > 0 {
		result, count = spliceImages(markdown, fenceRegex(langs), prefix, imageName, len(artifacts))
	}
	if count != len(artifacts) {
		log.Warn().
			Int("references", count).
			Int("artifacts", len(artifacts)).
			Msg("example count mismatch between converted document and rendered images")
	}

	if err := os.WriteFile(output, []byte(result), 0644); err != nil {
		return "", err
	}
	log.Info().Str("output", output).Int("examples", count).Msg("wrote documentation")
	return output, nil
}

// runnableLangs queries the driver for the language tags attached to
// runnable blocks in the source document.
func (a *Assembler) runnableLangs(ctx context.Context, bd *buildDir, root string) ([]string, error) {
	values, err := a.typst.QueryValues(ctx, bd.driver, "<runnable-lang>", root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(values))
	langs := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		langs = append(langs, v)
	}
	sort.Strings(langs)
	return langs, nil
}

// generateImages compiles the driver to the assets directory and
// finalizes the exported pages, or reuses existing artifacts when force
// is off.
func (a *Assembler) generateImages(ctx context.Context, bd *buildDir, assetsDir, imageName, root string, force bool) ([]domain.Artifact, error) {
	if !force {
		existing, err := listArtifacts(assetsDir, imageName)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			a.log.Debug().Int("count", len(existing)).Msg("reusing existing images")
			return artifactsFromFiles(existing), nil
		}
	}

	if err := clearArtifacts(assetsDir, imageName); err != nil {
		return nil, err
	}

	outputPattern := filepath.Join(assetsDir, imageName)
	if err := a.typst.Compile(ctx, bd.driver, outputPattern, root); err != nil {
		return nil, err
	}
	return finalizeArtifacts(assetsDir, imageName)
}

// defaultAssetsDir returns the "<stem>-assets" sibling of the source.
func defaultAssetsDir(source string) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(filepath.Dir(source), stem+"-assets")
}
