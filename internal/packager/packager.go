// Package packager copies a Typst source tree into a package directory
// laid out as <dest>/<namespace>/<name>/<version>/, driven by the
// typst.toml manifest. The destination is either the platform's local
// typst package cache or a checkout of the registry fork a package is
// submitted through.
package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/typdocs/typdocs-go/internal/domain"
	"github.com/typdocs/typdocs-go/internal/typst"
	"github.com/typdocs/typdocs-go/internal/utils"
)

// PackagesDirEnv overrides the destination when --dest is not given.
const PackagesDirEnv = "TYPDOCS_PACKAGES_DIR"

// Options control a packaging run.
type Options struct {
	// Dest is the packages folder. Empty resolves to $TYPDOCS_PACKAGES_DIR,
	// then the platform's local typst package directory.
	Dest string

	// Namespace groups the package; "local" for development, "preview"
	// when submitting to the registry.
	Namespace string

	// Overwrite replaces an existing target (full replace, no rollback).
	Overwrite bool

	// Symlink links entries instead of copying. Requires Overwrite.
	Symlink bool

	// Archive also writes <name>-<version>.tar.gz next to the target.
	Archive bool
}

// Packager copies manifest-listed paths into a versioned package dir.
type Packager struct {
	log *utils.Logger
}

// New creates a Packager
func New(log *utils.Logger) *Packager {
	return &Packager{log: log.WithComponent("packager")}
}

// Package executes a packaging run and returns the target directory.
func (p *Packager) Package(ctx context.Context, manifestPath string, opts Options) (string, error) {
	if opts.Symlink && !opts.Overwrite {
		return "", domain.NewValidationError("symlink", "symlink mode requires --overwrite")
	}

	manifestPath, err := filepath.Abs(manifestPath)
	if err != nil {
		return "", err
	}

	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return "", err
	}

	dest := opts.Dest
	if dest == "" {
		dest = os.Getenv(PackagesDirEnv)
	}
	if dest == "" {
		dest = typst.LocalPackagesDir()
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "local"
	}

	sourceDir := filepath.Dir(manifestPath)
	entries := withManifestEntry(manifest.Paths, filepath.Base(manifestPath))

	// Fail before the first byte is written.
	for _, e := range entries {
		if !utils.PathExists(filepath.Join(sourceDir, e.From)) {
			return "", fmt.Errorf("include path %s does not exist in %s", e.From, sourceDir)
		}
	}

	target := filepath.Join(dest, namespace, manifest.Name, manifest.Version)
	if utils.PathExists(target) {
		if !opts.Overwrite {
			return "", fmt.Errorf("%w: %s", domain.ErrDestinationExists, target)
		}
		if err := os.RemoveAll(target); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(target, 0755); err != nil {
		return "", err
	}

	bar := utils.NewProgressBar(len(entries), utils.DescCopying)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := p.copyEntry(sourceDir, target, e, opts.Symlink); err != nil {
			return "", err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if opts.Archive {
		archive := filepath.Join(filepath.Dir(target),
			fmt.Sprintf("%s-%s.tar.gz", manifest.Name, manifest.Version))
		if err := writeArchive(target, archive); err != nil {
			return "", err
		}
		p.log.Info().Str("archive", archive).Msg("wrote package archive")
	}

	p.log.Info().
		Str("package", manifest.Name).
		Str("version", manifest.Version).
		Str("target", target).
		Msg("created package")
	return target, nil
}

// copyEntry copies or symlinks a single include entry.
func (p *Packager) copyEntry(sourceDir, targetDir string, e domain.IncludeEntry, symlink bool) error {
	source := filepath.Join(sourceDir, e.From)
	dest := filepath.Join(targetDir, e.To)

	p.log.Debug().Str("from", source).Str("to", dest).Bool("symlink", symlink).Msg("copying entry")

	if symlink {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return os.Symlink(source, dest)
	}
	return utils.CopyPath(source, dest)
}

// withManifestEntry ensures the manifest file itself ships with the
// package.
func withManifestEntry(entries []domain.IncludeEntry, manifestName string) []domain.IncludeEntry {
	for _, e := range entries {
		if e.From == manifestName {
			return entries
		}
	}
	return append(entries, domain.IncludeEntry{From: manifestName, To: manifestName})
}
