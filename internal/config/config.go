package config

import (
	"fmt"
	"strings"
)

// Config represents the application configuration. It is built once per
// invocation and read-only afterwards.
type Config struct {
	Assembler AssemblerConfig `mapstructure:"assembler" yaml:"assembler"`
	Packager  PackagerConfig  `mapstructure:"packager" yaml:"packager"`
	Runner    RunnerConfig    `mapstructure:"runner" yaml:"runner"`
	Tools     ToolsConfig     `mapstructure:"tools" yaml:"tools"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// AssemblerConfig contains documentation assembly settings
type AssemblerConfig struct {
	Root      string   `mapstructure:"root" yaml:"root"`
	AssetsDir string   `mapstructure:"assets_dir" yaml:"assets_dir"`
	ImageName string   `mapstructure:"image_name" yaml:"image_name"`
	Labels    []string `mapstructure:"labels" yaml:"labels"`
	GitURL    string   `mapstructure:"git_url" yaml:"git_url"`
	Force     bool     `mapstructure:"force" yaml:"force"`
}

// PackagerConfig contains packaging settings
type PackagerConfig struct {
	Dest      string `mapstructure:"dest" yaml:"dest"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// RunnerConfig contains code-block execution settings. Languages maps a
// block label to the command line that receives the block on stdin.
type RunnerConfig struct {
	Languages map[string]string `mapstructure:"languages" yaml:"languages"`
	CacheFile string            `mapstructure:"cache_file" yaml:"cache_file"`
}

// ToolsConfig contains the external binary names or paths
type ToolsConfig struct {
	Typst  string `mapstructure:"typst" yaml:"typst"`
	Pandoc string `mapstructure:"pandoc" yaml:"pandoc"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration, filling in defaults for values
// that are merely absent and rejecting values of the wrong shape.
func (c *Config) Validate() error {
	if c.Assembler.ImageName == "" {
		c.Assembler.ImageName = DefaultImageName
	}
	if !strings.Contains(c.Assembler.ImageName, "{n}") {
		return fmt.Errorf("assembler.image_name %q must contain the {n} placeholder", c.Assembler.ImageName)
	}
	if c.Packager.Namespace == "" {
		c.Packager.Namespace = DefaultNamespace
	}
	if c.Runner.CacheFile == "" {
		c.Runner.CacheFile = DefaultCacheFile
	}
	for lang, command := range c.Runner.Languages {
		if strings.TrimSpace(command) == "" {
			return fmt.Errorf("runner.languages.%s: command must not be empty", lang)
		}
	}
	if c.Tools.Typst == "" {
		c.Tools.Typst = DefaultTypstBin
	}
	if c.Tools.Pandoc == "" {
		c.Tools.Pandoc = DefaultPandocBin
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	return nil
}
