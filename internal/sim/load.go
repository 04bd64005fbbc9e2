package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes, validates and elaborates a YAML design.
func Parse(data []byte) (*Design, error) {
	f, err := DecodeFile(data)
	if err != nil {
		return nil, err
	}
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	if err := v.Validate(f); err != nil {
		return nil, err
	}
	d, err := Elaborate(f)
	if err != nil {
		return nil, fmt.Errorf("elaborating %s: %w", f.Name, err)
	}
	return d, nil
}

// Load reads a design file from disk.
func Load(path string) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading design: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// DecodeFile decodes a YAML design without validating it.
func DecodeFile(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing design: %w", err)
	}
	return &f, nil
}
