package assembler

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed assets/formatter.typ assets/runner.typ
var helperAssets embed.FS

var helperFiles = []string{"formatter.typ", "runner.typ"}

// buildDir is a scratch directory created next to the source file. It
// holds the helper assets and the generated driver file that typst
// compiles and queries. It sits inside the source's parent so the driver
// can reference the source as "../<name>" under the same root.
type buildDir struct {
	dir     string
	driver  string
	persist bool
}

// newBuildDir creates the build directory and writes the driver for
// sourcePath. With persist set the directory is a stable "<stem>-build"
// sibling kept after the run for inspection.
func newBuildDir(sourcePath string, labels []string, persist bool) (*buildDir, error) {
	parent := filepath.Dir(sourcePath)
	name := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	var dir string
	var err error
	if persist {
		dir = filepath.Join(parent, stem+"-build")
		err = os.MkdirAll(dir, 0755)
	} else {
		dir, err = os.MkdirTemp(parent, stem)
	}
	if err != nil {
		return nil, err
	}

	for _, f := range helperFiles {
		data, err := helperAssets.ReadFile("assets/" + f)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(dir, f), data, 0644); err != nil {
			return nil, err
		}
	}

	driver := filepath.Join(dir, name)
	content, err := driverSource("../"+name, labels)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(driver, []byte(content), 0644); err != nil {
		return nil, err
	}

	return &buildDir{dir: dir, driver: driver, persist: persist}, nil
}

// driverSource renders the driver file contents. Options are passed to
// the formatter as an embedded JSON literal so the generated typst never
// needs per-option string assembly.
func driverSource(relSource string, labels []string) (string, error) {
	opts := map[string]any{}
	if len(labels) > 0 {
		opts["showable-labels"] = labels
	}

	encoded, err := json.Marshal(opts)
	if err != nil {
		return "", err
	}
	escaped := strings.ReplaceAll(string(encoded), `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)

	return fmt.Sprintf("#import \"formatter.typ\"\n#formatter._content-printer(%q, ..json.decode(\"%s\"))\n",
		relSource, escaped), nil
}

// Cleanup removes the build directory unless it is persisted.
func (b *buildDir) Cleanup() {
	if b.persist {
		return
	}
	os.RemoveAll(b.dir)
}
