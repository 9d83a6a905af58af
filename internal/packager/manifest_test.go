package packager

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typdocs/typdocs-go/internal/domain"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "typst.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
[package]
name = "showbox"
version = "1.2.3"

[tool.packager]
paths = ["lib.typ", "src", { from = "docs/README.md", to = "README.md" }]
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "showbox", m.Name)
	assert.Equal(t, "1.2.3", m.Version)
	require.Len(t, m.Paths, 3)
	assert.Equal(t, domain.IncludeEntry{From: "lib.typ", To: "lib.typ"}, m.Paths[0])
	assert.Equal(t, domain.IncludeEntry{From: "src", To: "src"}, m.Paths[1])
	assert.Equal(t, domain.IncludeEntry{From: "docs/README.md", To: "README.md"}, m.Paths[2])
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "typst.toml"))
	require.Error(t, err)
	var merr *domain.ManifestError
	assert.True(t, errors.As(err, &merr))
}

func TestLoadManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "missing name",
			content: `
[package]
version = "1.0.0"
[tool.packager]
paths = ["lib.typ"]
`,
		},
		{
			name: "missing version",
			content: `
[package]
name = "showbox"
[tool.packager]
paths = ["lib.typ"]
`,
			wantErr: domain.ErrMissingVersion,
		},
		{
			name: "non-numeric version",
			content: `
[package]
name = "showbox"
version = "1.0.0-beta"
[tool.packager]
paths = ["lib.typ"]
`,
		},
		{
			name: "missing paths",
			content: `
[package]
name = "showbox"
version = "1.0.0"
`,
			wantErr: domain.ErrMissingPaths,
		},
		{
			name: "paths not a list",
			content: `
[package]
name = "showbox"
version = "1.0.0"
[tool.packager]
paths = "lib.typ"
`,
		},
		{
			name: "entry missing to",
			content: `
[package]
name = "showbox"
version = "1.0.0"
[tool.packager]
paths = [{ from = "lib.typ" }]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(writeManifest(t, t.TempDir(), tt.content))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
