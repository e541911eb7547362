// Package config loads the CLI's on-disk YAML configuration: cobra flags
// provide ad-hoc overrides layered over a persistent YAML file for
// everything else.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the faktum CLI's on-disk configuration.
type Config struct {
	DataDir    string `yaml:"data_dir"`
	ScratchDir string `yaml:"scratch_dir"`
	LogLevel   string `yaml:"log_level"`
	LogJSON    bool   `yaml:"log_json"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DataDir:     "./faktum-data",
		ScratchDir:  "",
		LogLevel:    "info",
		LogJSON:     false,
		MetricsAddr: "127.0.0.1:9090",
	}
}

// Load reads path, merging it over Default(). A missing file is not an
// error: the caller gets defaults, since every field also has a cobra
// flag override.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
