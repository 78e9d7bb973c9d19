package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// profile is the YAML form of the command line flags.
type profile struct {
	Definitions string    `yaml:"definitions"`
	DefFile     string    `yaml:"def_file"`
	Type        string    `yaml:"type"`
	ByteOrder   string    `yaml:"byte_order"`
	Data        string    `yaml:"data"`
	Offset      int64     `yaml:"offset"`
	Count       int       `yaml:"count"`
	Defines     yaml.Node `yaml:"defines"`
}

type define struct {
	name string
	expr string
}

func loadProfile(path string) (*profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return parseProfile(data)
}

func parseProfile(data []byte) (*profile, error) {
	var p profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if p.Offset < 0 {
		return nil, fmt.Errorf("profile offset %d is negative", p.Offset)
	}
	if p.Count < 0 {
		return nil, fmt.Errorf("profile count %d is negative", p.Count)
	}
	return &p, nil
}

// defines returns the profile's constants in document order, so a define
// may refer to the ones above it.
func (p *profile) defines() ([]define, error) {
	node := &p.Defines
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("profile defines: line %d: expected a mapping", node.Line)
	}
	out := make([]define, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("profile defines: line %d: %s must be a scalar", v.Line, k.Value)
		}
		out = append(out, define{name: k.Value, expr: v.Value})
	}
	return out, nil
}

// source returns the declaration text, reading DefFile when set.
func (p *profile) source() (string, error) {
	if p.DefFile == "" {
		return p.Definitions, nil
	}
	data, err := os.ReadFile(p.DefFile)
	if err != nil {
		return "", fmt.Errorf("read definitions: %w", err)
	}
	return p.Definitions + "\n" + string(data), nil
}
