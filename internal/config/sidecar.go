package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sidecar is the restricted per-document configuration, read from
// "<stem>.typdocs.yaml" next to the source file. It overrides the config
// file but is itself overridden by explicit CLI flags. Unknown keys are
// rejected so documents cannot smuggle in arbitrary settings.
type Sidecar struct {
	Root      string   `yaml:"root"`
	AssetsDir string   `yaml:"assets_dir"`
	Output    string   `yaml:"output"`
	ImageName string   `yaml:"image_name"`
	Labels    []string `yaml:"labels"`
	GitURL    string   `yaml:"git_url"`
}

// SidecarPath returns the sidecar path for a source file.
func SidecarPath(sourcePath string) string {
	ext := filepath.Ext(sourcePath)
	stem := strings.TrimSuffix(sourcePath, ext)
	return stem + ".typdocs.yaml"
}

// LoadSidecar reads the sidecar for sourcePath. A missing sidecar yields
// a nil Sidecar and no error.
func LoadSidecar(sourcePath string) (*Sidecar, error) {
	path := SidecarPath(sourcePath)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Sidecar
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Sidecar{}, nil
		}
		return nil, fmt.Errorf("sidecar %s: %w", path, err)
	}
	return &sc, nil
}

// Apply merges the sidecar onto the assembler configuration. Empty
// sidecar fields leave the existing value untouched.
func (s *Sidecar) Apply(cfg *AssemblerConfig) {
	if s == nil {
		return
	}
	if s.Root != "" {
		cfg.Root = s.Root
	}
	if s.AssetsDir != "" {
		cfg.AssetsDir = s.AssetsDir
	}
	if s.ImageName != "" {
		cfg.ImageName = s.ImageName
	}
	if len(s.Labels) > 0 {
		cfg.Labels = s.Labels
	}
	if s.GitURL != "" {
		cfg.GitURL = s.GitURL
	}
}
