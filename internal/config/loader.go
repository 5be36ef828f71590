package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, defaults and validates a plan from a YAML file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plan from YAML bytes, rejecting unknown fields, then
// applies defaults and validates.
func Parse(data []byte) (*Plan, error) {
	var plan Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}

	ApplyDefaults(&plan)
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}
