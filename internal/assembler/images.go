package assembler

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/typdocs/typdocs-go/internal/domain"
)

// imagePattern converts an image name template to a glob pattern.
func imagePattern(imageName string) string {
	return strings.Replace(imageName, "{n}", "*", 1)
}

// imageFile renders the image name template for index n with the given
// zero-pad width.
func imageFile(imageName string, n, pad int) string {
	num := fmt.Sprintf("%0*d", pad, n)
	return strings.Replace(imageName, "{n}", num, 1)
}

// numberPattern matches a file name against the template, capturing the
// digits at the {n} position. Anchoring to the template matters when the
// template itself contains digits, e.g. "fig2-{n}.png".
func numberPattern(imageName string) *regexp.Regexp {
	expr := strings.Replace(regexp.QuoteMeta(imageName), regexp.QuoteMeta("{n}"), `(\d+)`, 1)
	return regexp.MustCompile("^" + expr + "$")
}

// listArtifacts returns the exported images in the assets directory,
// ordered by their embedded number. Numeric ordering matters: typst may
// emit unpadded page numbers, where a lexical sort would place 10 before 2.
func listArtifacts(assetsDir, imageName string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(assetsDir, imagePattern(imageName)))
	if err != nil {
		return nil, err
	}

	numRe := numberPattern(imageName)
	num := func(path string) int {
		m := numRe.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			return 0
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0
		}
		return n
	}
	sort.Slice(matches, func(i, j int) bool {
		return num(matches[i]) < num(matches[j])
	})
	return matches, nil
}

// clearArtifacts removes all exported images from the assets directory.
func clearArtifacts(assetsDir, imageName string) error {
	existing, err := listArtifacts(assetsDir, imageName)
	if err != nil {
		return err
	}
	for _, f := range existing {
		if err := os.Remove(f); err != nil {
			return err
		}
	}
	return nil
}

// finalizeArtifacts drops the probe page image and renumbers the rest
// from 1 with zero-padding sized to the example count. Typst exports
// every page, and the first page carries only hidden probe content.
func finalizeArtifacts(assetsDir, imageName string) ([]domain.Artifact, error) {
	existing, err := listArtifacts(assetsDir, imageName)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return nil, nil
	}

	if err := os.Remove(existing[0]); err != nil {
		return nil, err
	}
	existing = existing[1:]

	pad := len(strconv.Itoa(len(existing)))
	artifacts := make([]domain.Artifact, 0, len(existing))
	for i, f := range existing {
		target := filepath.Join(assetsDir, imageFile(imageName, i+1, pad))
		if f != target {
			if err := os.Rename(f, target); err != nil {
				return nil, err
			}
		}
		artifacts = append(artifacts, domain.Artifact{Index: i + 1, Path: target})
	}
	return artifacts, nil
}

// artifactsFromFiles wraps already-finalized image paths as artifacts,
// used when cached images from a previous run are reused.
func artifactsFromFiles(files []string) []domain.Artifact {
	artifacts := make([]domain.Artifact, 0, len(files))
	for i, f := range files {
		artifacts = append(artifacts, domain.Artifact{Index: i + 1, Path: f})
	}
	return artifacts
}
