package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Results ResultsConfig `mapstructure:"results"`
	Log     LogConfig     `mapstructure:"log"`
}

type DataConfig struct {
	Path       string  `mapstructure:"path"`
	Target     string  `mapstructure:"target"`
	TimeColumn string  `mapstructure:"time_column"`
	TestSize   float64 `mapstructure:"test_size"`
}

type ResultsConfig struct {
	Dir       string `mapstructure:"dir"`
	Plots     bool   `mapstructure:"plots"`
	TreeDepth int    `mapstructure:"tree_depth"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Output            string `mapstructure:"output"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// Load reads the YAML file at path on top of the built-in defaults.
// FRAUD_* environment variables override both, e.g. FRAUD_DATA_PATH.
// An empty or nonexistent path leaves only defaults and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FRAUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("data.path", "data/raw/creditcard.csv")
	v.SetDefault("data.target", "Class")
	v.SetDefault("data.time_column", "Time")
	v.SetDefault("data.test_size", 0.2)
	v.SetDefault("results.dir", "results")
	v.SetDefault("results.plots", true)
	v.SetDefault("results.tree_depth", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.development", false)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", true)
	v.SetDefault("log.disable_stacktrace", true)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Config{}, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
