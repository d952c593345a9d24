// Package config re-exports internal/workbench's pool shape type under
// a non-internal import path, and adds a YAML loader for driving
// cmd/bench from a file instead of flags.
package config

import (
	"os"

	"github.com/i5heu/workqueue/internal/workbench"
	"gopkg.in/yaml.v3"
)

// Config is an alias for workbench.Config.
type Config = workbench.Config

// Run describes one named benchmark configuration: a worker-pool
// shape plus how long to run it.
type Run struct {
	Name           string `yaml:"name"`
	NumWorkers     int    `yaml:"numWorkers"`
	InitialPerHead int    `yaml:"initialPerHead"`
	DurationMS     int    `yaml:"durationMs"`
	Policy         string `yaml:"policy"` // "best_of_2" | "one_random" | "best_of_all"
}

// StealPolicy translates the YAML policy name to a workbench.StealPolicy,
// defaulting to the production best-of-2 policy on an unrecognised or
// empty value.
func (r Run) StealPolicy() workbench.StealPolicy {
	switch r.Policy {
	case "one_random":
		return workbench.StealPolicyOneRandom
	case "best_of_all":
		return workbench.StealPolicyBestOfAll
	default:
		return workbench.StealPolicyBestOf2
	}
}

// File is the top-level shape of a benchmark config file: a list of
// runs to execute in sequence.
type File struct {
	Runs []Run `yaml:"runs"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, err
	}
	return f, nil
}
