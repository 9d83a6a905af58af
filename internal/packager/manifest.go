package packager

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"
	"github.com/typdocs/typdocs-go/internal/domain"
)

// versionPattern is the strict major.minor.patch triple the registry
// accepts.
var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// LoadManifest reads and validates a typst.toml manifest. It needs
// package.name, package.version and the tool.packager.paths include list.
func LoadManifest(path string) (*domain.Manifest, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, domain.NewManifestError(path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, domain.NewManifestError(path, err)
	}

	m := &domain.Manifest{
		Name:    v.GetString("package.name"),
		Version: v.GetString("package.version"),
	}
	if m.Name == "" {
		return nil, domain.NewManifestError(path, fmt.Errorf("package.name is missing"))
	}
	if m.Version == "" {
		return nil, domain.NewManifestError(path, domain.ErrMissingVersion)
	}
	if !versionPattern.MatchString(m.Version) {
		return nil, domain.NewManifestError(path,
			fmt.Errorf("%q is not a valid version (want major.minor.patch)", m.Version))
	}

	raw := v.Get("tool.packager.paths")
	if raw == nil {
		return nil, domain.NewManifestError(path, domain.ErrMissingPaths)
	}
	entries, err := parseIncludeList(raw)
	if err != nil {
		return nil, domain.NewManifestError(path, err)
	}
	m.Paths = entries

	return m, nil
}

// parseIncludeList accepts a list whose elements are plain path strings
// or {from = ..., to = ...} tables.
func parseIncludeList(raw any) ([]domain.IncludeEntry, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("tool.packager.paths must be a list, got %T", raw)
	}

	entries := make([]domain.IncludeEntry, 0, len(list))
	for _, item := range list {
		switch e := item.(type) {
		case string:
			entries = append(entries, domain.IncludeEntry{From: e, To: e})
		case map[string]any:
			from, _ := e["from"].(string)
			to, _ := e["to"].(string)
			if from == "" || to == "" {
				return nil, fmt.Errorf("invalid include entry %v: need from and to", e)
			}
			entries = append(entries, domain.IncludeEntry{From: from, To: to})
		default:
			return nil, fmt.Errorf("invalid include entry %v: must be a path or {from, to} table", item)
		}
	}
	return entries, nil
}
