package domain

import "fmt"

// ExampleBlock is a tagged, renderable region discovered in a Typst source
// file. Blocks are numbered in document order starting at 1.
type ExampleBlock struct {
	Index    int
	Language string
	Source   string
}

// Artifact is a rendered example image on disk.
type Artifact struct {
	Index int
	Path  string
}

// IncludeEntry is a single entry of the packaging manifest's include list.
// To defaults to From when the manifest uses the plain-string form.
type IncludeEntry struct {
	From string
	To   string
}

func (e IncludeEntry) String() string {
	if e.To == e.From {
		return e.From
	}
	return fmt.Sprintf("%s -> %s", e.From, e.To)
}

// Manifest is the parsed packaging manifest (typst.toml).
type Manifest struct {
	Name    string
	Version string
	Paths   []IncludeEntry
}
