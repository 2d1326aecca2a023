// Package config loads the CLI's optional .l.yaml configuration file.
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// Config holds default CLI behavior, overridable per-invocation by flags
// (spec SPEC_FULL.md §A.2).
type Config struct {
	// OutputFormat is "text" or "json" (default "text").
	OutputFormat string `yaml:"outputFormat"`
	// TypeCheck runs the Analyzer before the Compiler/VM when true.
	TypeCheck bool `yaml:"typeCheck"`
	// Trace logs every VM opcode executed to stderr when true.
	Trace bool `yaml:"trace"`
}

// Default returns the configuration used when no .l.yaml is present.
func Default() Config {
	return Config{OutputFormat: "text", TypeCheck: true, Trace: false}
}

// Load reads and parses the YAML config file at path. A missing file is
// not an error — it returns Default() unchanged, since .l.yaml is
// optional.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
