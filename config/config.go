// Package config loads the optional settings file that tunes the CTFE
// pipeline: how many instructions a single evaluation may execute
// before the interpreter gives up, and whether intermediate stages
// (tokens, AST, IR) should be dumped for debugging. The teacher's
// go.mod already pulled in yaml.v3 transitively (via testify); this is
// the first thing in the module that actually parses YAML with it.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the shape of meg.yaml. All fields have sane zero-value
// defaults, so an absent or empty file is a valid configuration.
type Config struct {
	// InstructionBudget caps how many IR instructions interp.Run will
	// execute before aborting with a diagnostic. Zero means unlimited.
	InstructionBudget int `yaml:"instruction_budget"`

	// Dump controls which intermediate stages the CLI driver prints
	// before running the program.
	Dump struct {
		Tokens bool `yaml:"tokens"`
		AST    bool `yaml:"ast"`
		IR     bool `yaml:"ir"`
	} `yaml:"dump"`
}

// Default returns the configuration used when no file is supplied:
// an unlimited instruction budget and no intermediate dumps.
func Default() Config {
	return Config{}
}

// Load reads and parses a YAML config file at path. A missing file is
// not an error — it returns Default() instead, since meg.yaml is
// optional everywhere the CLI accepts a -config flag.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
