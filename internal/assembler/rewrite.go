package assembler

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
)

// rawURLPattern matches the repository URL form accepted by --git-url:
// https://www.<site>/<user>/<repo>/<branch-or-tag>/
var rawURLPattern = regexp.MustCompile(`^https://www\.[^/]+/[^/]+/[^/]+/[^/]+/`)

// remoteURLPattern extracts host, user and repo from an origin remote in
// either https or scp-like ssh form.
var remoteURLPattern = regexp.MustCompile(`^(?:https?://(?:www\.)?|git@)([^/:]+)[/:]([^/]+)/([^/]+?)(?:\.git)?/?$`)

// RawContentURL validates a repository URL and returns the base URL under
// which repository files are served raw.
func RawContentURL(gitURL string) (string, error) {
	if !rawURLPattern.MatchString(gitURL) {
		return "", fmt.Errorf("could not parse url %q: must be of form %s", gitURL, rawURLPattern.String())
	}
	return gitURL + "raw/", nil
}

// DetectRepoURL derives a --git-url equivalent from the origin remote of
// the repository containing dir, using "main" as the ref.
func DetectRepoURL(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("no git repository at %s: %w", dir, err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("no origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("origin remote has no URL")
	}

	m := remoteURLPattern.FindStringSubmatch(urls[0])
	if m == nil {
		return "", fmt.Errorf("could not parse origin remote %q", urls[0])
	}
	return fmt.Sprintf("https://www.%s/%s/%s/main/", m[1], m[2], m[3]), nil
}

// fenceRegex matches the opening fence of a code block tagged with one of
// the runnable language tags.
func fenceRegex(langs []string) *regexp.Regexp {
	quoted := make([]string, 0, len(langs))
	for _, l := range langs {
		quoted = append(quoted, regexp.QuoteMeta(l))
	}
	return regexp.MustCompile(`^\s*` + "```" + `.*\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var closingFence = regexp.MustCompile("^```")

// spliceImages rewrites the converted markdown: each runnable code fence
// becomes a typst fence followed by a reference to its rendered image.
// Returns the rewritten document and the number of examples referenced.
func spliceImages(markdown string, fence *regexp.Regexp, prefix, imageName string, total int) (string, int) {
	lines := strings.Split(markdown, "\n")
	out := make([]string, 0, len(lines)+total)
	pad := len(strconv.Itoa(total))

	n := 0
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !fence.MatchString(line) {
			out = append(out, line)
			continue
		}

		n++
		out = append(out, fence.ReplaceAllString(line, "``` typst"))
		for i++; i < len(lines); i++ {
			out = append(out, lines[i])
			if closingFence.MatchString(lines[i]) {
				break
			}
		}
		out = append(out, fmt.Sprintf("![Example %d](%s/%s)", n, prefix, imageFile(imageName, n, pad)))
	}
	return strings.Join(out, "\n"), n
}

// resolveImagePrefix decides what image references are relative to. In
// distribution mode it is the repository raw URL; locally it is the path
// from the output file's directory to the assets directory, or the raw
// output directory string when that directory is outside the root.
func resolveImagePrefix(assetsDir, outputPath, rootDir, rawURL string) string {
	if rawURL != "" {
		return strings.TrimRight(rawURL, "/")
	}

	outputDir := filepath.Dir(outputPath)
	if info, err := os.Stat(outputDir); err == nil && info.IsDir() && isUnder(rootDir, outputDir) {
		// os.Rel-style resolution: assets need not be under the output
		// directory, e.g. assets in root/assets with output in root/docs.
		if rel, err := filepath.Rel(outputDir, assetsDir); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(outputDir)
}

// isUnder reports whether path is root or lies below it.
func isUnder(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
