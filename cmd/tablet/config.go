package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// tabletConfig is the tablet server's startup configuration, loaded
// from an optional TOML file and overridable by command-line flags.
type tabletConfig struct {
	Listen   string `toml:"listen"`
	LogLevel string `toml:"log_level"`
}

func defaultConfig() *tabletConfig {
	return &tabletConfig{Listen: ":8864", LogLevel: "info"}
}

func loadConfig(path string) (*tabletConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}
