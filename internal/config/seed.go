package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedItem is one entry of the seed file.
type SeedItem struct {
	Text      string `yaml:"text"`
	Completed bool   `yaml:"completed"`
}

// DefaultSeed matches the fixture the end-to-end suite expects.
func DefaultSeed() []SeedItem {
	return []SeedItem{
		{Text: "ToDo item 1"},
		{Text: "ToDo item 2"},
		{Text: "ToDo item 3"},
	}
}

// LoadSeed returns the seed items for c: nothing when seeding is off, the
// YAML file when one is configured, DefaultSeed otherwise.
//
// The file is a plain list:
//
//	- text: Buy milk
//	- text: Walk the dog
//	  completed: true
func LoadSeed(c Config) ([]SeedItem, error) {
	if !c.Seed {
		return nil, nil
	}
	if c.SeedFile == "" {
		return DefaultSeed(), nil
	}

	data, err := os.ReadFile(c.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var items []SeedItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", c.SeedFile, err)
	}
	return items, nil
}
