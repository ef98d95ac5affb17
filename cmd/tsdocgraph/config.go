package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds the contents of .tsdocgraph/config.yaml: operational
// settings for the standalone CLI/MCP server that a host bundler would
// otherwise supply in-process (spec §6).
type ProjectConfig struct {
	LogFile    string `yaml:"log_file"`
	DebounceMs int    `yaml:"watch_debounce_ms"`
}

// loadProjectConfig reads .tsdocgraph/config.yaml from the current
// directory. Returns nil (no error) if the file does not exist.
func loadProjectConfig() (*ProjectConfig, error) {
	data, err := os.ReadFile(".tsdocgraph/config.yaml")
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
