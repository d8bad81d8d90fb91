// Package pipeline loads and validates pipeline definition files.
package pipeline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plumb-dev/plumb/internal/resources"
	"github.com/plumb-dev/plumb/pkg/api"
)

// Load reads a pipeline definition from a YAML file.
func Load(path string) (*api.PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	var spec api.PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	if err := Validate(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks structural invariants: a name, at least one task, unique
// non-empty task names, a command per task, and well-formed resource blocks.
func Validate(spec *api.PipelineSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("pipeline: name required")
	}
	if len(spec.Tasks) == 0 {
		return fmt.Errorf("pipeline %s: no tasks", spec.Name)
	}
	if spec.Resources != nil {
		if _, err := resources.FromSpec(*spec.Resources); err != nil {
			return fmt.Errorf("pipeline %s: %w", spec.Name, err)
		}
	}
	seen := map[string]bool{}
	for _, t := range spec.Tasks {
		if t.Name == "" {
			return fmt.Errorf("pipeline %s: task without a name", spec.Name)
		}
		if seen[t.Name] {
			return fmt.Errorf("pipeline %s: duplicate task %s", spec.Name, t.Name)
		}
		seen[t.Name] = true
		if t.Command == "" {
			return fmt.Errorf("pipeline %s: task %s has no command", spec.Name, t.Name)
		}
		if t.Resources != nil {
			if _, err := resources.FromSpec(*t.Resources); err != nil {
				return fmt.Errorf("pipeline %s: task %s: %w", spec.Name, t.Name, err)
			}
		}
	}
	return nil
}
