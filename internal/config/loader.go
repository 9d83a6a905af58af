package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from defaults, config file, environment and
// CLI flag bindings, in increasing precedence. It uses the global viper
// instance so cobra flag bindings are visible.
func Load() (*Config, error) {
	v := viper.GetViper()

	setDefaults(v)

	v.SetConfigName("typdocs")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	// Missing config file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("TYPDOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.Runner.Languages) == 0 {
		cfg.Runner.Languages = Default().Runner.Languages
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("assembler.image_name", DefaultImageName)
	v.SetDefault("assembler.force", false)

	v.SetDefault("packager.namespace", DefaultNamespace)

	v.SetDefault("runner.cache_file", DefaultCacheFile)

	v.SetDefault("tools.typst", DefaultTypstBin)
	v.SetDefault("tools.pandoc", DefaultPandocBin)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}
