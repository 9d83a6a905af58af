package assembler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("png"), 0644))
}

func TestListArtifacts_NumericOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"1", "10", "2", "3"} {
		touch(t, filepath.Join(dir, "example-"+n+".png"))
	}

	files, err := listArtifacts(dir, "example-{n}.png")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"example-1.png", "example-2.png", "example-3.png", "example-10.png"}, names)
}

func TestListArtifacts_DigitInTemplate(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"1", "10", "2"} {
		touch(t, filepath.Join(dir, "fig2-"+n+".png"))
	}

	files, err := listArtifacts(dir, "fig2-{n}.png")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"fig2-1.png", "fig2-2.png", "fig2-10.png"}, names)
}

func TestFinalizeArtifacts(t *testing.T) {
	dir := t.TempDir()
	// typst exports the probe page plus three examples
	for _, n := range []string{"1", "2", "3", "4"} {
		touch(t, filepath.Join(dir, "example-"+n+".png"))
	}

	artifacts, err := finalizeArtifacts(dir, "example-{n}.png")
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	for i, a := range artifacts {
		assert.Equal(t, i+1, a.Index)
		assert.FileExists(t, a.Path)
	}
	assert.Equal(t, "example-1.png", filepath.Base(artifacts[0].Path))
	assert.Equal(t, "example-3.png", filepath.Base(artifacts[2].Path))

	// probe page image is gone and nothing extra remains
	remaining, err := listArtifacts(dir, "example-{n}.png")
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
}

func TestFinalizeArtifacts_Padding(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 11; i++ {
		touch(t, filepath.Join(dir, imageFile("example-{n}.png", i, 1)))
	}

	artifacts, err := finalizeArtifacts(dir, "example-{n}.png")
	require.NoError(t, err)
	require.Len(t, artifacts, 10)

	assert.Equal(t, "example-01.png", filepath.Base(artifacts[0].Path))
	assert.Equal(t, "example-10.png", filepath.Base(artifacts[9].Path))
}

func TestFinalizeArtifacts_Empty(t *testing.T) {
	artifacts, err := finalizeArtifacts(t.TempDir(), "example-{n}.png")
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestClearArtifacts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "example-1.png"))
	touch(t, filepath.Join(dir, "example-2.png"))
	touch(t, filepath.Join(dir, "notes.txt"))

	require.NoError(t, clearArtifacts(dir, "example-{n}.png"))

	files, err := listArtifacts(dir, "example-{n}.png")
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestImageFile(t *testing.T) {
	assert.Equal(t, "example-1.png", imageFile("example-{n}.png", 1, 1))
	assert.Equal(t, "example-007.png", imageFile("example-{n}.png", 7, 3))
	assert.Equal(t, "fig-02.svg", imageFile("fig-{n}.svg", 2, 2))
}
