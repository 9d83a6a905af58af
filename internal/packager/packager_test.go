package packager

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typdocs/typdocs-go/internal/domain"
	"github.com/typdocs/typdocs-go/internal/utils"
)

const testManifest = `
[package]
name = "showbox"
version = "1.2.3"

[tool.packager]
paths = ["lib.typ", "src", { from = "docs/README.md", to = "README.md" }]
`

func testLogger() *utils.Logger {
	return utils.NewLogger(utils.LoggerOptions{Level: "error", Format: "json"})
}

// sourceTree lays out a small package checkout and returns its manifest
// path.
func sourceTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0755))
	files := map[string]string{
		"lib.typ":        "#let box() = {}",
		"src/util.typ":   "#let util() = {}",
		"docs/README.md": "# showbox",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return writeManifest(t, dir, testManifest)
}

func TestPackage(t *testing.T) {
	manifest := sourceTree(t)
	dest := t.TempDir()

	target, err := New(testLogger()).Package(context.Background(), manifest, Options{Dest: dest})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "local", "showbox", "1.2.3"), target)

	assert.FileExists(t, filepath.Join(target, "lib.typ"))
	assert.FileExists(t, filepath.Join(target, "src", "util.typ"))
	assert.FileExists(t, filepath.Join(target, "README.md"))
	assert.FileExists(t, filepath.Join(target, "typst.toml"))

	// remapped entry does not keep its source layout
	assert.NoFileExists(t, filepath.Join(target, "docs", "README.md"))
}

func TestPackage_Namespace(t *testing.T) {
	manifest := sourceTree(t)
	dest := t.TempDir()

	target, err := New(testLogger()).Package(context.Background(), manifest,
		Options{Dest: dest, Namespace: "preview"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "preview", "showbox", "1.2.3"), target)
}

func TestPackage_DestFromEnv(t *testing.T) {
	manifest := sourceTree(t)
	dest := t.TempDir()
	t.Setenv(PackagesDirEnv, dest)

	target, err := New(testLogger()).Package(context.Background(), manifest, Options{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "local", "showbox", "1.2.3"), target)
}

func TestPackage_ExistingTarget(t *testing.T) {
	manifest := sourceTree(t)
	dest := t.TempDir()
	target := filepath.Join(dest, "local", "showbox", "1.2.3")
	require.NoError(t, os.MkdirAll(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "stale.typ"), []byte("old"), 0644))

	p := New(testLogger())

	_, err := p.Package(context.Background(), manifest, Options{Dest: dest})
	assert.ErrorIs(t, err, domain.ErrDestinationExists)

	_, err = p.Package(context.Background(), manifest, Options{Dest: dest, Overwrite: true})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(target, "stale.typ"))
	assert.FileExists(t, filepath.Join(target, "lib.typ"))
}

func TestPackage_MissingIncludePath(t *testing.T) {
	manifest := sourceTree(t)
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(manifest), "lib.typ")))
	dest := t.TempDir()

	_, err := New(testLogger()).Package(context.Background(), manifest, Options{Dest: dest})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lib.typ")

	// validation failed before anything was written
	assert.NoDirExists(t, filepath.Join(dest, "local"))
}

func TestPackage_SymlinkRequiresOverwrite(t *testing.T) {
	_, err := New(testLogger()).Package(context.Background(), "typst.toml", Options{Symlink: true})
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPackage_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	manifest := sourceTree(t)
	dest := t.TempDir()

	target, err := New(testLogger()).Package(context.Background(), manifest,
		Options{Dest: dest, Overwrite: true, Symlink: true})
	require.NoError(t, err)

	info, err := os.Lstat(filepath.Join(target, "lib.typ"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
}

func TestPackage_Archive(t *testing.T) {
	manifest := sourceTree(t)
	dest := t.TempDir()

	target, err := New(testLogger()).Package(context.Background(), manifest,
		Options{Dest: dest, Archive: true})
	require.NoError(t, err)

	archive := filepath.Join(filepath.Dir(target), "showbox-1.2.3.tar.gz")
	require.FileExists(t, archive)

	names := readArchiveNames(t, archive)
	assert.Contains(t, names, "lib.typ")
	assert.Contains(t, names, "src/util.typ")
	assert.Contains(t, names, "typst.toml")
}

func readArchiveNames(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
	}
	return names
}

func TestPackage_CancelledContext(t *testing.T) {
	manifest := sourceTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testLogger()).Package(ctx, manifest, Options{Dest: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithManifestEntry(t *testing.T) {
	entries := withManifestEntry([]domain.IncludeEntry{{From: "lib.typ", To: "lib.typ"}}, "typst.toml")
	require.Len(t, entries, 2)
	assert.Equal(t, "typst.toml", entries[1].From)

	// already listed, not duplicated
	again := withManifestEntry(entries, "typst.toml")
	assert.Len(t, again, 2)
}
