// Package devseed loads fixture files used to pre-populate the in-memory car
// service in mock mode and in the sandbox.
package devseed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CarSeed is a list of external car records, keyed exactly as the remote
// service would send them.
type CarSeed struct {
	User    string           `yaml:"user,omitempty"`
	Records []map[string]any `yaml:"records"`
}

// LoadCarSeed reads a YAML or JSON seed file. Two shapes are accepted: a bare
// list of records, or an object with "records" and an optional "user" the
// records belong to.
func LoadCarSeed(path string) (*CarSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %q: %w", path, err)
	}
	return ParseCarSeed(data)
}

// ParseCarSeed decodes seed content already in memory.
func ParseCarSeed(data []byte) (*CarSeed, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("devseed: parse seed: %w", err)
	}
	seed := &CarSeed{}
	if len(node.Content) == 0 {
		return seed, nil
	}
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&seed.Records); err != nil {
			return nil, fmt.Errorf("devseed: decode records: %w", err)
		}
	case yaml.MappingNode:
		if err := root.Decode(seed); err != nil {
			return nil, fmt.Errorf("devseed: decode seed: %w", err)
		}
	default:
		return nil, fmt.Errorf("devseed: seed must be a list or an object")
	}
	for i, rec := range seed.Records {
		if rec == nil {
			return nil, fmt.Errorf("devseed: record %d is empty", i)
		}
	}
	return seed, nil
}
