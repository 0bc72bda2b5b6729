// Package request loads per-run generation specs: how many rows each table
// gets and any steering instructions for the row service.
package request

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Spec struct {
	Rows   int                  `yaml:"rows"`
	Tables map[string]TableSpec `yaml:"tables,omitempty"`
}

type TableSpec struct {
	Rows         int    `yaml:"rows,omitempty"`
	Instructions string `yaml:"instructions,omitempty"`
}

func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run spec: %w", err)
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse run spec %s: %w", path, err)
	}

	for name, table := range spec.Tables {
		if table.Rows < 0 {
			return nil, fmt.Errorf("run spec %s: table %s has negative row count", path, name)
		}
	}
	return &spec, nil
}

// RowTargets flattens the per-table row counts, omitting tables that defer
// to the default.
func (s *Spec) RowTargets() map[string]int {
	targets := make(map[string]int)
	for name, table := range s.Tables {
		if table.Rows > 0 {
			targets[name] = table.Rows
		}
	}
	return targets
}

func (s *Spec) Instructions() map[string]string {
	instructions := make(map[string]string)
	for name, table := range s.Tables {
		if table.Instructions != "" {
			instructions[name] = table.Instructions
		}
	}
	return instructions
}
