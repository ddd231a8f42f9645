// Package plan parses track plan files. A plan declares the full track set
// up front so a project can be bootstrapped in one import instead of one
// create call per track.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is the top-level plan file structure.
type Plan struct {
	Project string       `yaml:"project"`
	Tracks  []TrackEntry `yaml:"tracks"`
}

// TrackEntry declares one track in a plan file.
type TrackEntry struct {
	ID                 string   `yaml:"id"`
	Title              string   `yaml:"title"`
	Description        string   `yaml:"description"`
	Complexity         string   `yaml:"complexity"`
	Dependencies       []string `yaml:"dependencies"`
	InterfacesOwned    []string `yaml:"interfaces_owned"`
	InterfacesConsumed []string `yaml:"interfaces_consumed"`
	TestCommand        string   `yaml:"test_command"`
	TestTimeoutSec     int      `yaml:"test_timeout_seconds"`
	QualityPassRate    float64  `yaml:"quality_pass_rate"`
}

// Load reads and validates a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse parses plan file contents.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Plan) validate() error {
	if len(p.Tracks) == 0 {
		return fmt.Errorf("plan declares no tracks")
	}

	seen := make(map[string]bool, len(p.Tracks))
	for i, track := range p.Tracks {
		if track.ID == "" {
			return fmt.Errorf("track %d: missing id", i+1)
		}
		if track.Title == "" {
			return fmt.Errorf("track %s: missing title", track.ID)
		}
		if seen[track.ID] {
			return fmt.Errorf("track %s: declared twice", track.ID)
		}
		seen[track.ID] = true

		switch track.Complexity {
		case "", "S", "M", "L", "XL":
		default:
			return fmt.Errorf("track %s: invalid complexity %q", track.ID, track.Complexity)
		}
	}

	// Dependencies must point at tracks declared in the same plan.
	for _, track := range p.Tracks {
		for _, dep := range track.Dependencies {
			if dep == track.ID {
				return fmt.Errorf("track %s: depends on itself", track.ID)
			}
			if !seen[dep] {
				return fmt.Errorf("track %s: unknown dependency %s", track.ID, dep)
			}
		}
	}

	return nil
}
