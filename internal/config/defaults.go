package config

import (
	"os"
	"path/filepath"
)

// Default values
const (
	// Assembler defaults
	DefaultImageName = "example-{n}.png"

	// Packager defaults
	DefaultNamespace = "local"

	// Runner defaults
	DefaultCacheFile = ".typdocs-cache.json"

	// Tool defaults
	DefaultTypstBin  = "typst"
	DefaultPandocBin = "pandoc"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// DefaultLanguages maps block labels to the commands that execute them.
// Every command receives the block source on stdin.
var DefaultLanguages = map[string]string{
	"bash":   "sh",
	"python": "python3",
}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".typdocs"
	}
	return filepath.Join(home, ".typdocs")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "typdocs.yaml")
}

// Default returns the default configuration
func Default() *Config {
	langs := make(map[string]string, len(DefaultLanguages))
	for k, v := range DefaultLanguages {
		langs[k] = v
	}
	return &Config{
		Assembler: AssemblerConfig{
			ImageName: DefaultImageName,
		},
		Packager: PackagerConfig{
			Namespace: DefaultNamespace,
		},
		Runner: RunnerConfig{
			Languages: langs,
			CacheFile: DefaultCacheFile,
		},
		Tools: ToolsConfig{
			Typst:  DefaultTypstBin,
			Pandoc: DefaultPandocBin,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
